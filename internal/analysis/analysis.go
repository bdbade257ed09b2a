// Package analysis provides derived views over parsed spectrum datasets:
// baseline subtraction, peak-hold and min/max/average envelopes.
//
// All functions produce fresh record lists; source datasets and sweeps are
// never mutated. Output records look like finalised single-sample records:
// DbmTotal mirrors DbmAvg and DbmCount is 1.
package analysis

import (
	"errors"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

// Subtract removes a baseline scan from a signal scan bin-by-bin. Baseline
// records are matched by the raw frequency string, not numerically, so two
// differently formatted but numerically equal frequencies do not match.
// Signal records with no baseline counterpart are dropped. Result order
// follows the signal's order.
func Subtract(signal, baseline []*spectrum.BinData) []*spectrum.BinData {
	baselineMap := make(map[string]*spectrum.BinData, len(baseline))
	for _, b := range baseline {
		baselineMap[b.FreqStart] = b
	}

	result := make([]*spectrum.BinData, 0, len(signal))
	for _, sig := range signal {
		base, ok := baselineMap[sig.FreqStart]
		if !ok {
			continue
		}
		result = append(result, derive(sig, sig.DbmAvg-base.DbmAvg))
	}
	return result
}

// SubtractMulti applies Subtract to each signal series against one shared
// baseline.
func SubtractMulti(signals [][]*spectrum.BinData, baseline []*spectrum.BinData) [][]*spectrum.BinData {
	result := make([][]*spectrum.BinData, len(signals))
	for i, series := range signals {
		result[i] = Subtract(series, baseline)
	}
	return result
}

// PeakHold returns the maximum power observed at each frequency across all
// sweeps. A frequency missing from some sweeps takes its maximum over the
// sweeps where it is present. The record achieving the maximum supplies the
// output metadata; on equal power the later observation wins.
func PeakHold(sweeps []spectrum.Sweep) ([]*spectrum.BinData, error) {
	if len(sweeps) == 0 {
		return nil, errors.New("peak hold requires at least one sweep")
	}

	peaks := make(map[string]*spectrum.BinData)
	for _, sweep := range sweeps {
		for _, b := range sweep.Bins {
			if cur, ok := peaks[b.FreqStart]; !ok || b.DbmAvg >= cur.DbmAvg {
				peaks[b.FreqStart] = b
			}
		}
	}

	result := make([]*spectrum.BinData, 0, len(peaks))
	for _, b := range peaks {
		result = append(result, derive(b, b.DbmAvg))
	}
	spectrum.SortBins(result)
	return result, nil
}

// Envelope computes the minimum, maximum and arithmetic mean power per
// frequency across all sweeps, as three parallel frequency-sorted series.
// Like PeakHold, frequencies absent from some sweeps are aggregated only
// over the sweeps where they appear.
func Envelope(sweeps []spectrum.Sweep) (minSeries, maxSeries, avgSeries []*spectrum.BinData, err error) {
	if len(sweeps) == 0 {
		return nil, nil, nil, errors.New("envelope requires at least one sweep")
	}

	type binStats struct {
		min, max, sum float64
		count         int
		template      *spectrum.BinData
	}

	acc := make(map[string]*binStats)
	for _, sweep := range sweeps {
		for _, b := range sweep.Bins {
			s, ok := acc[b.FreqStart]
			if !ok {
				acc[b.FreqStart] = &binStats{min: b.DbmAvg, max: b.DbmAvg, sum: b.DbmAvg, count: 1, template: b}
				continue
			}
			if b.DbmAvg < s.min {
				s.min = b.DbmAvg
			}
			if b.DbmAvg > s.max {
				s.max = b.DbmAvg
			}
			s.sum += b.DbmAvg
			s.count++
		}
	}

	minSeries = make([]*spectrum.BinData, 0, len(acc))
	maxSeries = make([]*spectrum.BinData, 0, len(acc))
	avgSeries = make([]*spectrum.BinData, 0, len(acc))
	for _, s := range acc {
		minSeries = append(minSeries, derive(s.template, s.min))
		maxSeries = append(maxSeries, derive(s.template, s.max))
		avgSeries = append(avgSeries, derive(s.template, s.sum/float64(s.count)))
	}
	spectrum.SortBins(minSeries)
	spectrum.SortBins(maxSeries)
	spectrum.SortBins(avgSeries)
	return minSeries, maxSeries, avgSeries, nil
}

// derive copies a template record's metadata and overwrites the statistic
// fields with the given value.
func derive(template *spectrum.BinData, value float64) *spectrum.BinData {
	out := template.Copy()
	out.DbmAvg = value
	out.DbmTotal = value
	out.DbmCount = 1
	return out
}

package spectrum

import (
	"math"
	"strconv"
	"strings"
)

const minFields = 7

// convertLine splits one rtl_power CSV row into per-bin records keyed by the
// string form of each bin's start frequency.
//
// The row format is: date, time, freq_start, freq_end, step, num_samples,
// dBm0[, dBm1, ...]. Each dBm column describes the bin starting at
// freq_start + i*step, truncated to integer Hz. Rows with fewer than seven
// columns produce no records. A power column that does not parse as a
// number, reads "nan" in any case, or parses to NaN is skipped; rtl_power
// emits literal "nan" for dropped bins and the format's origin tool rejects
// it during parsing, so it must not survive into the dataset here either.
func convertLine(line string) map[string]*BinData {
	fields := strings.Split(line, ",")
	if len(fields) < minFields {
		return nil
	}

	date := strings.TrimSpace(fields[0])
	tod := strings.TrimSpace(fields[1])

	freqStart, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return nil
	}

	stepRaw := strings.TrimSpace(fields[4])
	step, err := strconv.ParseFloat(stepRaw, 64)
	if err != nil {
		return nil
	}

	numSamples := strings.TrimSpace(fields[5])

	bins := make(map[string]*BinData, len(fields)-minFields+1)
	for i, field := range fields[minFields-1:] {
		raw := strings.TrimSpace(field)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || strings.ToLower(raw) == "nan" || math.IsNaN(value) {
			continue
		}

		freq := int64(float64(freqStart) + float64(i)*step)
		key := strconv.FormatInt(freq, 10)

		// Duplicate keys within one row (step <= 0) resolve last-write-wins.
		bins[key] = &BinData{
			Date:        date,
			Time:        tod,
			FreqStart:   key,
			FreqStartHz: freq,
			FreqEnd:     stepRaw,
			BinSize:     stepRaw,
			NumSamples:  numSamples,
			DbmTotal:    value,
			DbmCount:    1,
		}
	}

	return bins
}

// mergeBins folds freshly decoded records into an accumulation cache. New
// keys are inserted as-is; existing keys get their running sum and count
// extended, so the average stays an online single-pass computation.
func mergeBins(cache, bins map[string]*BinData) {
	for key, bin := range bins {
		if existing, ok := cache[key]; ok {
			existing.DbmTotal += bin.DbmTotal
			existing.DbmCount += bin.DbmCount
		} else {
			cache[key] = bin
		}
	}
}

// finalizeBins sorts a cache's records by frequency and computes each
// record's average power from the accumulated totals, in place.
func finalizeBins(cache map[string]*BinData) []*BinData {
	bins := make([]*BinData, 0, len(cache))
	for _, bin := range cache {
		bins = append(bins, bin)
	}
	SortBins(bins)
	for _, bin := range bins {
		bin.DbmAvg = bin.DbmTotal / float64(bin.DbmCount)
	}
	return bins
}

// Parser accumulates rtl_power CSV rows into one averaged record per
// frequency, regardless of how many sweeps the input spans.
//
// A Parser is owned by a single load operation and is not safe for
// concurrent use. Lines may be fed incrementally as they arrive, for
// example while streaming from a running rtl_power process.
type Parser struct {
	cache map[string]*BinData
}

// NewParser returns an empty accumulating parser.
func NewParser() *Parser {
	return &Parser{cache: make(map[string]*BinData)}
}

// AddLine parses a single CSV row and merges its bins into the accumulator.
// Malformed rows and rows whose every power column is NaN are ignored.
func (p *Parser) AddLine(line string) {
	mergeBins(p.cache, convertLine(line))
}

// Convert finalises accumulation: records sorted ascending by frequency,
// each with DbmAvg computed from its running total and count. The internal
// state is kept, so more lines may be added and Convert called again.
func (p *Parser) Convert() []*BinData {
	return finalizeBins(p.cache)
}

// SweepParser accumulates rtl_power CSV rows grouped into sweeps. A sweep
// boundary occurs whenever the "date time" label of a row differs from the
// previous row's label. Within a sweep, duplicate frequencies merge exactly
// as in Parser.
//
// Like Parser, a SweepParser belongs to one load operation at a time.
type SweepParser struct {
	done    []sweepCache
	current sweepCache
}

type sweepCache struct {
	label string
	bins  map[string]*BinData
}

// NewSweepParser returns an empty sweep-segmenting parser.
func NewSweepParser() *SweepParser {
	return &SweepParser{}
}

// AddLine parses a single CSV row and merges it into the open sweep,
// closing it and opening a new one when the timestamp label changes.
// Rows that decode to no records are ignored and do not affect sweep
// boundaries, so an all-NaN row cannot split a sweep in two.
func (p *SweepParser) AddLine(line string) {
	bins := convertLine(line)
	if len(bins) == 0 {
		return
	}

	var sample *BinData
	for _, bin := range bins {
		sample = bin
		break
	}
	label := sample.Date + " " + sample.Time

	if label != p.current.label {
		if p.current.label != "" {
			p.done = append(p.done, p.current)
		}
		p.current = sweepCache{label: label, bins: make(map[string]*BinData)}
	}

	mergeBins(p.current.bins, bins)
}

// Convert finalises all sweeps, including the still-open one, in the order
// their labels first appeared. Each sweep's records come back sorted by
// frequency with averages computed. No re-sorting by label is done; the
// result is chronological only if the input was.
func (p *SweepParser) Convert() []Sweep {
	caches := make([]sweepCache, 0, len(p.done)+1)
	caches = append(caches, p.done...)
	if p.current.label != "" {
		caches = append(caches, p.current)
	}

	sweeps := make([]Sweep, 0, len(caches))
	for _, c := range caches {
		sweeps = append(sweeps, Sweep{Label: c.label, Bins: finalizeBins(c.bins)})
	}
	return sweeps
}

package render

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	defaultMinPower = -120.0 // dBm
	defaultMaxPower = -20.0  // dBm
)

// powerBounds returns the display power range for a set of readings, taken
// at the given quantiles so a handful of outlier spikes does not flatten
// the rest of the scale. Empty input falls back to a conventional dBm
// range.
func powerBounds(values []float64, loQ, hiQ float64) (lo, hi float64) {
	if len(values) == 0 {
		return defaultMinPower, defaultMaxPower
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo = stat.Quantile(loQ, stat.Empirical, sorted, nil)
	hi = stat.Quantile(hiQ, stat.Empirical, sorted, nil)

	if hi <= lo {
		lo, hi = lo-1, lo+1
	}
	return lo, hi
}

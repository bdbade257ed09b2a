package spectrum

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	oneKHz = 1_000
	oneMHz = 1_000_000
	oneGHz = 1_000_000_000
)

// FormatFrequency renders a frequency in Hz as a human-readable string with
// a Hz/KHz/MHz/GHz suffix. Scaled values keep at most one decimal place,
// with trailing zeros trimmed. Negative values render empty.
func FormatFrequency(hz float64) string {
	v := int64(hz)
	switch {
	case v < 0:
		return ""
	case v < oneKHz:
		return fmt.Sprintf("%d Hz", v)
	case v < oneMHz:
		return formatDecimal(hz/oneKHz) + " KHz"
	case v < oneGHz:
		return formatDecimal(hz/oneMHz) + " MHz"
	default:
		return formatDecimal(hz/oneGHz) + " GHz"
	}
}

// FormatPower renders a dBm value with two decimal places. NaN renders
// empty.
func FormatPower(dbm float64) string {
	if math.IsNaN(dbm) {
		return ""
	}
	return strconv.FormatFloat(dbm, 'f', 2, 64)
}

func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

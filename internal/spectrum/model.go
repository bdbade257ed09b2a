package spectrum

import (
	"cmp"
	"slices"
)

// BinData represents a single frequency bin from rtl_power output.
//
// The raw CSV fields are kept verbatim as strings so that re-exported files
// reproduce the source tool's formatting. FreqStartHz is the parsed start
// frequency used for ordering and numeric comparison; FreqStart, its string
// form, is the exact-match key used for merging and baseline lookup.
type BinData struct {
	Date        string // calendar date as printed by rtl_power
	Time        string // time of day as printed by rtl_power
	FreqStart   string // start frequency string, merge/lookup key
	FreqStartHz int64  // start frequency in Hz
	FreqEnd     string // step value; rtl_power prints it in the end column
	BinSize     string // same value as FreqEnd, format quirk kept for output
	NumSamples  string
	DbmAvg      float64 // finalised mean power, valid after Convert
	DbmTotal    float64 // running sum during accumulation
	DbmCount    int     // number of contributing samples
}

// Copy returns a new BinData with the same field values. Derived series must
// copy before overwriting statistics so the source records stay untouched.
func (b *BinData) Copy() *BinData {
	c := *b
	return &c
}

// Sweep is one complete scan pass over the configured frequency range.
// Label is the "date time" of the first record seen in the sweep, Bins is
// the frequency-sorted, finalised record list.
type Sweep struct {
	Label string
	Bins  []*BinData
}

// SortBins orders records ascending by start frequency.
func SortBins(bins []*BinData) {
	slices.SortFunc(bins, func(a, b *BinData) int {
		return cmp.Compare(a.FreqStartHz, b.FreqStartHz)
	})
}

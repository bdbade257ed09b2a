// Package bands loads a YAML frequency allocation table and resolves the
// band containing a given frequency. When allocations overlap, the
// narrowest (most specific) band wins.
//
// The document is an ordered sequence of entries:
//
//	- primary_service_category: BROADCASTING
//	  primary_frequency_range: [87500.0, 108000.0]   # kHz
//	  subbands:
//	  - frequency_range: [87500.0, 108000.0]         # kHz
//	    width: 20500.0                               # kHz
//	    usage: FM Radio
//
// All frequencies in the document are in kHz and are converted to Hz on
// load so they compare directly against parsed bin frequencies.
package bands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

// Band is one frequency allocation row: either a sub-band, or a fallback
// row covering an entry's primary range when the entry declares no usable
// sub-bands. The interval is half-open, [StartHz, EndHz).
type Band struct {
	StartHz        int64
	EndHz          int64
	WidthKhz       float64
	Usage          string
	PrimaryService string
}

// Annotation renders the band as a short text label for chart annotation.
func (b *Band) Annotation() string {
	parts := []string{
		b.PrimaryService,
		spectrum.FormatFrequency(float64(b.StartHz)) + " - " + spectrum.FormatFrequency(float64(b.EndHz)),
	}
	if b.Usage != "" && b.Usage != b.PrimaryService {
		parts = append(parts, "Usage: "+b.Usage)
	}
	return strings.Join(parts, "; ")
}

// Table holds bands sorted ascending by start frequency, wider bands first
// on equal starts so narrower bands sort later and win lookup ties. The
// parallel starts array backs the binary search in Lookup.
type Table struct {
	Bands  []Band
	starts []int64
}

// Len returns the number of band rows in the table.
func (t *Table) Len() int {
	return len(t.Bands)
}

// Schema validation inspects only the first few entries; it is a cheap
// format check, not a full document scan.
const validateEntryLimit = 5

// validateSchema checks that a decoded YAML document has the allocation
// table shape. The returned error names the first offending entry index
// and field.
func validateSchema(doc any) error {
	entries, ok := doc.([]any)
	if !ok {
		return fmt.Errorf("band table: expected a sequence of entries, got %T", doc)
	}
	if len(entries) == 0 {
		return errors.New("band table: document contains no entries")
	}

	for i, raw := range entries[:min(len(entries), validateEntryLimit)] {
		entry, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("band table: entry %d is not a mapping", i)
		}

		svc, ok := entry["primary_service_category"].(string)
		if !ok || strings.TrimSpace(svc) == "" {
			return fmt.Errorf("band table: entry %d is missing 'primary_service_category'", i)
		}

		rng, ok := entry["primary_frequency_range"].([]any)
		if !ok || len(rng) != 2 {
			return fmt.Errorf("band table: entry %d 'primary_frequency_range' must be a pair of numbers", i)
		}
		for j, v := range rng {
			if _, ok := toFloat(v); !ok {
				return fmt.Errorf("band table: entry %d 'primary_frequency_range[%d]' is not a number", i, j)
			}
		}

		if _, ok := entry["subbands"].([]any); !ok {
			return fmt.Errorf("band table: entry %d 'subbands' must be a sequence", i)
		}
	}
	return nil
}

// Load reads and validates a YAML allocation document into a lookup table.
//
// Every sub-band with a two-value frequency range and a non-empty usage
// becomes a row carrying its parent's primary service. An entry with no
// usable sub-bands contributes a single fallback row spanning its primary
// range, with usage set to the primary service itself.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("band allocation file '%s' does not exist: %w", path, err)
		}
		return nil, fmt.Errorf("reading band allocation file: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing band allocation file: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var all []Band
	for _, raw := range doc.([]any) {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		svc, _ := entry["primary_service_category"].(string)
		primary, ok := numericPair(entry["primary_frequency_range"])
		if !ok {
			continue
		}

		subbands, _ := entry["subbands"].([]any)
		emitted := false
		for _, sraw := range subbands {
			sub, ok := sraw.(map[string]any)
			if !ok {
				continue
			}
			rng, ok := numericPair(sub["frequency_range"])
			if !ok {
				continue
			}
			usage, _ := sub["usage"].(string)
			if usage == "" {
				continue
			}
			width, _ := toFloat(sub["width"])

			emitted = true
			all = append(all, Band{
				StartHz:        khzToHz(rng[0]),
				EndHz:          khzToHz(rng[1]),
				WidthKhz:       width,
				Usage:          usage,
				PrimaryService: svc,
			})
		}

		if !emitted {
			all = append(all, Band{
				StartHz:        khzToHz(primary[0]),
				EndHz:          khzToHz(primary[1]),
				WidthKhz:       primary[1] - primary[0],
				Usage:          svc,
				PrimaryService: svc,
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].StartHz != all[j].StartHz {
			return all[i].StartHz < all[j].StartHz
		}
		return all[i].EndHz-all[i].StartHz > all[j].EndHz-all[j].StartHz
	})

	starts := make([]int64, len(all))
	for i, b := range all {
		starts[i] = b.StartHz
	}
	return &Table{Bands: all, starts: starts}, nil
}

// Lookup returns the narrowest band whose half-open interval contains
// freqHz, or nil if no band matches.
//
// A binary search finds the rightmost band starting at or below freqHz,
// then a backward scan picks the narrowest containing candidate. The scan
// stops at the first non-containing candidate once any match is held:
// everything further back starts even earlier and cannot be narrower. That
// holds for the two-level (primary + sub-band) tables this package loads;
// pathological multi-level overlaps would need an unconditional full scan.
func (t *Table) Lookup(freqHz int64) *Band {
	idx := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > freqHz })

	var best *Band
	var bestWidth int64
	for i := idx - 1; i >= 0; i-- {
		band := &t.Bands[i]
		if band.StartHz > freqHz {
			continue
		}
		if band.EndHz <= freqHz {
			if best != nil {
				break
			}
			continue
		}
		if width := band.EndHz - band.StartHz; best == nil || width < bestWidth {
			best = band
			bestWidth = width
		}
	}
	return best
}

func khzToHz(khz float64) int64 {
	return int64(khz * 1000)
}

// numericPair extracts the first two numbers from a decoded YAML sequence.
func numericPair(v any) ([2]float64, bool) {
	seq, ok := v.([]any)
	if !ok || len(seq) < 2 {
		return [2]float64{}, false
	}
	a, ok := toFloat(seq[0])
	if !ok {
		return [2]float64{}, false
	}
	b, ok := toFloat(seq[1])
	if !ok {
		return [2]float64{}, false
	}
	return [2]float64{a, b}, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

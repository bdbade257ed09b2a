package spectrum

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// rtl_power rows carry one column per bin and can get very long on
// fine-grained scans.
const maxLineBytes = 1 << 20

// Load reads an rtl_power CSV file into a single averaged dataset. Rows
// from repeated sweeps over the same range merge into one record per
// frequency.
func Load(path string) ([]*BinData, error) {
	p := NewParser()
	if err := feedLines(path, p.AddLine); err != nil {
		return nil, err
	}
	return p.Convert(), nil
}

// LoadSweeps reads an rtl_power CSV file keeping each sweep separate.
func LoadSweeps(path string) ([]Sweep, error) {
	p := NewSweepParser()
	if err := feedLines(path, p.AddLine); err != nil {
		return nil, err
	}
	return p.Convert(), nil
}

func feedLines(path string, addLine func(string)) (err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("scan file '%s' does not exist: %w", path, err)
		}
		return fmt.Errorf("opening scan file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			addLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading scan file: %w", err)
	}
	return nil
}

// Save writes records back to the rtl_power CSV format: exactly seven
// columns per row, no header. The average power is written with Go's
// shortest round-trip float formatting so a saved file loads back to the
// same values.
func Save(data []*BinData, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	w := bufio.NewWriter(f)
	for _, b := range data {
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s\n",
			b.Date, b.Time, b.FreqStart, b.FreqEnd, b.BinSize, b.NumSamples,
			strconv.FormatFloat(b.DbmAvg, 'g', -1, 64))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

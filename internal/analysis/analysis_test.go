package analysis

import (
	"strconv"
	"testing"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

func bin(freqHz int64, dbm float64) *spectrum.BinData {
	key := strconv.FormatInt(freqHz, 10)
	return &spectrum.BinData{
		Date:        "2024-01-01",
		Time:        "10:00:00",
		FreqStart:   key,
		FreqStartHz: freqHz,
		FreqEnd:     "64000",
		BinSize:     "64000",
		NumSamples:  "128",
		DbmAvg:      dbm,
		DbmTotal:    dbm,
		DbmCount:    1,
	}
}

func TestSubtract(t *testing.T) {
	signal := []*spectrum.BinData{
		bin(433000000, -30),
		bin(433064000, -50),
		bin(433128000, -60), // no baseline counterpart, must be dropped
	}
	baseline := []*spectrum.BinData{
		bin(433000000, -80),
		bin(433064000, -50),
	}

	result := Subtract(signal, baseline)
	if len(result) != 2 {
		t.Fatalf("Expected 2 bins, got %d", len(result))
	}
	if result[0].DbmAvg != 50 {
		t.Errorf("Expected +50 at first bin, got %g", result[0].DbmAvg)
	}
	if result[1].DbmAvg != 0 {
		t.Errorf("Expected 0 at second bin, got %g", result[1].DbmAvg)
	}
	if result[0].DbmCount != 1 || result[0].DbmTotal != result[0].DbmAvg {
		t.Errorf("Result bins must look like single samples: count %d total %g",
			result[0].DbmCount, result[0].DbmTotal)
	}
}

func TestSubtract_SelfIsZero(t *testing.T) {
	data := []*spectrum.BinData{bin(433000000, -30), bin(433064000, -42.5)}

	for i, b := range Subtract(data, data) {
		if b.DbmAvg != 0 {
			t.Errorf("Bin %d: expected 0, got %g", i, b.DbmAvg)
		}
	}
}

func TestSubtract_MatchesByExactString(t *testing.T) {
	signal := []*spectrum.BinData{bin(433000000, -30)}
	baseline := []*spectrum.BinData{bin(433000000, -40)}
	baseline[0].FreqStart = "433000000.0" // numerically equal, textually not

	if result := Subtract(signal, baseline); len(result) != 0 {
		t.Fatalf("Expected no match for differently formatted key, got %d bins", len(result))
	}
}

func TestSubtract_DoesNotMutateInputs(t *testing.T) {
	signal := []*spectrum.BinData{bin(433000000, -30)}
	baseline := []*spectrum.BinData{bin(433000000, -80)}

	Subtract(signal, baseline)
	if signal[0].DbmAvg != -30 || baseline[0].DbmAvg != -80 {
		t.Errorf("Inputs mutated: signal %g, baseline %g", signal[0].DbmAvg, baseline[0].DbmAvg)
	}
}

func TestSubtractMulti(t *testing.T) {
	signals := [][]*spectrum.BinData{
		{bin(433000000, -30)},
		{bin(433000000, -50)},
	}
	baseline := []*spectrum.BinData{bin(433000000, -80)}

	result := SubtractMulti(signals, baseline)
	if len(result) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(result))
	}
	if result[0][0].DbmAvg != 50 || result[1][0].DbmAvg != 30 {
		t.Errorf("Unexpected values: %g, %g", result[0][0].DbmAvg, result[1][0].DbmAvg)
	}
}

func TestPeakHold(t *testing.T) {
	sweeps := []spectrum.Sweep{
		{Label: "2024-01-01 10:00:00", Bins: []*spectrum.BinData{
			bin(433000000, -30),
			bin(433064000, -70),
		}},
		{Label: "2024-01-01 10:02:00", Bins: []*spectrum.BinData{
			bin(433000000, -50),
			bin(433064000, -40),
			bin(433128000, -65), // present in one sweep only
		}},
	}

	peaks, err := PeakHold(sweeps)
	if err != nil {
		t.Fatalf("PeakHold failed: %v", err)
	}
	if len(peaks) != 3 {
		t.Fatalf("Expected 3 bins, got %d", len(peaks))
	}
	if peaks[0].DbmAvg != -30 {
		t.Errorf("Expected -30 at first bin, got %g", peaks[0].DbmAvg)
	}
	if peaks[1].DbmAvg != -40 {
		t.Errorf("Expected -40 at second bin, got %g", peaks[1].DbmAvg)
	}
	if peaks[2].DbmAvg != -65 {
		t.Errorf("Expected -65 at third bin, got %g", peaks[2].DbmAvg)
	}
}

func TestPeakHold_LaterWinsOnTie(t *testing.T) {
	first := bin(433000000, -30)
	second := bin(433000000, -30)
	second.Time = "10:02:00"

	sweeps := []spectrum.Sweep{
		{Label: "2024-01-01 10:00:00", Bins: []*spectrum.BinData{first}},
		{Label: "2024-01-01 10:02:00", Bins: []*spectrum.BinData{second}},
	}

	peaks, err := PeakHold(sweeps)
	if err != nil {
		t.Fatalf("PeakHold failed: %v", err)
	}
	if peaks[0].Time != "10:02:00" {
		t.Errorf("Expected the later observation to win the tie, got time %q", peaks[0].Time)
	}
}

func TestPeakHold_SingleSweepIdentity(t *testing.T) {
	sweep := spectrum.Sweep{Label: "2024-01-01 10:00:00", Bins: []*spectrum.BinData{
		bin(433000000, -30),
		bin(433064000, -40),
	}}

	peaks, err := PeakHold([]spectrum.Sweep{sweep})
	if err != nil {
		t.Fatalf("PeakHold failed: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("Expected 2 bins, got %d", len(peaks))
	}
	for i, b := range peaks {
		if b.DbmAvg != sweep.Bins[i].DbmAvg {
			t.Errorf("Bin %d: expected %g, got %g", i, sweep.Bins[i].DbmAvg, b.DbmAvg)
		}
	}
}

func TestPeakHold_NoSweeps(t *testing.T) {
	if _, err := PeakHold(nil); err == nil {
		t.Fatal("Expected an error for empty input")
	}
}

func TestEnvelope(t *testing.T) {
	sweeps := []spectrum.Sweep{
		{Label: "2024-01-01 10:00:00", Bins: []*spectrum.BinData{
			bin(433000000, -30),
			bin(433064000, -60),
		}},
		{Label: "2024-01-01 10:02:00", Bins: []*spectrum.BinData{
			bin(433000000, -50),
		}},
	}

	minS, maxS, avgS, err := Envelope(sweeps)
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}
	if len(minS) != 2 || len(maxS) != 2 || len(avgS) != 2 {
		t.Fatalf("Expected 2 bins per series, got %d/%d/%d", len(minS), len(maxS), len(avgS))
	}

	if minS[0].DbmAvg != -50 || maxS[0].DbmAvg != -30 || avgS[0].DbmAvg != -40 {
		t.Errorf("First bin: got min %g max %g avg %g", minS[0].DbmAvg, maxS[0].DbmAvg, avgS[0].DbmAvg)
	}
	// Second frequency appears in one sweep only; all three collapse to it.
	if minS[1].DbmAvg != -60 || maxS[1].DbmAvg != -60 || avgS[1].DbmAvg != -60 {
		t.Errorf("Second bin: got min %g max %g avg %g", minS[1].DbmAvg, maxS[1].DbmAvg, avgS[1].DbmAvg)
	}

	for i := range minS {
		if minS[i].DbmAvg > avgS[i].DbmAvg || avgS[i].DbmAvg > maxS[i].DbmAvg {
			t.Errorf("Bin %d: min/avg/max not ordered: %g/%g/%g",
				i, minS[i].DbmAvg, avgS[i].DbmAvg, maxS[i].DbmAvg)
		}
	}
}

func TestEnvelope_NoSweeps(t *testing.T) {
	if _, _, _, err := Envelope(nil); err == nil {
		t.Fatal("Expected an error for empty input")
	}
}

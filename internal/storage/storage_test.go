package storage

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "archive.db"))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store
}

func testBins(n int) []*spectrum.BinData {
	bins := make([]*spectrum.BinData, n)
	for i := range bins {
		freq := int64(433000000 + i*64000)
		key := strconv.FormatInt(freq, 10)
		bins[i] = &spectrum.BinData{
			Date:        "2024-01-01",
			Time:        "10:00:00",
			FreqStart:   key,
			FreqStartHz: freq,
			FreqEnd:     "64000",
			BinSize:     "64000",
			NumSamples:  "128",
			DbmAvg:      -30.5 - float64(i),
			DbmTotal:    -30.5 - float64(i),
			DbmCount:    1,
		}
	}
	return bins
}

func TestStore_SessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "scan.csv", "average", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected a non-zero session ID")
	}

	sess, err := store.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if sess == nil {
		t.Fatal("Expected the session to exist")
	}
	if sess.Source != "scan.csv" || sess.Mode != "average" {
		t.Errorf("Unexpected session: %+v", sess)
	}
	if sess.Config != nil {
		t.Errorf("Expected no config, got %q", *sess.Config)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("Expected a creation timestamp")
	}
}

func TestStore_SessionNotFound(t *testing.T) {
	store := newTestStore(t)

	// Force schema creation so the read connection has a table to query.
	if _, err := store.CreateSession(context.Background(), "x", "average", nil); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sess, err := store.Session(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if sess != nil {
		t.Errorf("Expected nil for an unknown ID, got %+v", sess)
	}
}

func TestStore_ConfigSerialisation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	config := map[string]int{"gain": 28}
	id, err := store.CreateSession(ctx, "rtl_power", "scan", config)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sess, err := store.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if sess.Config == nil {
		t.Fatal("Expected a stored config")
	}
	if *sess.Config != `{"gain":28}` {
		t.Errorf("Unexpected config JSON: %q", *sess.Config)
	}
}

func TestStore_DatasetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "scan.csv", "peak", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	stored := testBins(3)
	if err := store.StoreDataset(ctx, id, stored); err != nil {
		t.Fatalf("StoreDataset failed: %v", err)
	}

	loaded, err := store.Dataset(ctx, id)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(loaded) != len(stored) {
		t.Fatalf("Expected %d bins, got %d", len(stored), len(loaded))
	}
	for i, b := range loaded {
		want := stored[i]
		if b.FreqStart != want.FreqStart || b.FreqStartHz != want.FreqStartHz {
			t.Errorf("Bin %d: frequency %q/%d, want %q/%d",
				i, b.FreqStart, b.FreqStartHz, want.FreqStart, want.FreqStartHz)
		}
		if b.DbmAvg != want.DbmAvg {
			t.Errorf("Bin %d: average %g, want %g", i, b.DbmAvg, want.DbmAvg)
		}
		if b.FreqEnd != b.BinSize {
			t.Errorf("Bin %d: FreqEnd %q must mirror BinSize %q", i, b.FreqEnd, b.BinSize)
		}
		if b.DbmCount != 1 || b.DbmTotal != b.DbmAvg {
			t.Errorf("Bin %d: not in finalised single-sample form", i)
		}
	}
}

func TestStore_DatasetsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "a.csv", "average", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := store.CreateSession(ctx, "b.csv", "average", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := store.StoreDataset(ctx, first, testBins(2)); err != nil {
		t.Fatalf("StoreDataset failed: %v", err)
	}
	if err := store.StoreDataset(ctx, second, testBins(5)); err != nil {
		t.Fatalf("StoreDataset failed: %v", err)
	}

	bins, err := store.Dataset(ctx, second)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(bins) != 5 {
		t.Errorf("Expected 5 bins for the second session, got %d", len(bins))
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}
}

package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, useCache bool) *Store {
	t.Helper()
	s, err := ForDirectory(t.TempDir(), useCache)
	if err != nil {
		t.Fatalf("unexpected error binding store: %v", err)
	}
	return s
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t, false)

	rec, err := s.Create(map[string]any{
		"symbol": "BTC-USD",
		"side":   "buy",
		"extra":  map[string]any{"venue": "test"},
	}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}
	if rec.ID() == "" {
		t.Fatal("expected a generated id")
	}

	got, err := s.Get(rec.ID())
	if err != nil {
		t.Fatalf("unexpected error reading record back: %v", err)
	}
	if got.GetString("symbol") != "BTC-USD" || got.GetString("side") != "buy" {
		t.Fatalf("fields did not round-trip: %+v", got.Data())
	}

	nested, _ := got.Get("extra")
	m, ok := nested.(map[string]any)
	if !ok || m["venue"] != "test" {
		t.Fatalf("nested fields did not round-trip: %+v", nested)
	}
}

func TestCreateRendersDecimalsAndTimestampsAsStrings(t *testing.T) {
	s := newTestStore(t, false)

	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	rec, err := s.Create(map[string]any{
		"target_price": decimal.RequireFromString("100.50"),
		"_dt":          stamp,
	}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir(), rec.ID()+FileExt))
	if err != nil {
		t.Fatalf("unexpected error reading file: %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unexpected error decoding file: %v", err)
	}
	if data["target_price"] != "100.5" {
		t.Fatalf("price not rendered as string: %v (%T)", data["target_price"], data["target_price"])
	}
	if data["_dt"] != "2024-03-01 12:30:00+00:00" {
		t.Fatalf("timestamp not rendered as string: %v", data["_dt"])
	}
}

func TestCreateRejectsDuplicateExplicitID(t *testing.T) {
	s := newTestStore(t, false)

	if _, err := s.Create(map[string]any{"n": 1}, "fixed"); err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}

	_, err := s.Create(map[string]any{"n": 2}, "fixed")
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// Generated ids never collide, so a blank id still works.
	if _, err := s.Create(map[string]any{"n": 3}, ""); err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}
}

func TestGetMissingRecord(t *testing.T) {
	s := newTestStore(t, true)

	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	s := newTestStore(t, false)

	rec, err := s.GetOrCreate("abc", map[string]any{"symbol": "ETH-USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "abc" || rec.GetString("symbol") != "ETH-USD" {
		t.Fatalf("unexpected created record: %+v", rec.Data())
	}

	// Second call returns the existing record, defaults ignored.
	again, err := s.GetOrCreate("abc", map[string]any{"symbol": "SOL-USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.GetString("symbol") != "ETH-USD" {
		t.Fatalf("existing record was overwritten: %+v", again.Data())
	}
}

func TestSetWritesThrough(t *testing.T) {
	s := newTestStore(t, true)

	rec, err := s.Create(map[string]any{"status": "open"}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}
	if err := s.Set(rec, "status", "closed"); err != nil {
		t.Fatalf("unexpected error setting field: %v", err)
	}

	// A cold store sees the change immediately.
	cold, err := ForDirectory(s.Dir(), false)
	if err != nil {
		t.Fatalf("unexpected error binding cold store: %v", err)
	}
	got, err := cold.Get(rec.ID())
	if err != nil {
		t.Fatalf("unexpected error reading record: %v", err)
	}
	if got.GetString("status") != "closed" {
		t.Fatalf("mutation not flushed to storage: %+v", got.Data())
	}
}

func TestCachedGetIgnoresExternalWrites(t *testing.T) {
	dir := t.TempDir()
	cached, err := ForDirectory(dir, true)
	if err != nil {
		t.Fatalf("unexpected error binding store: %v", err)
	}
	uncached, err := ForDirectory(dir, false)
	if err != nil {
		t.Fatalf("unexpected error binding store: %v", err)
	}

	rec, err := cached.Create(map[string]any{"v": "old"}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}

	other, err := uncached.Get(rec.ID())
	if err != nil {
		t.Fatalf("unexpected error reading record: %v", err)
	}
	if err := uncached.Set(other, "v", "new"); err != nil {
		t.Fatalf("unexpected error writing record: %v", err)
	}

	// Documented staleness: the cached handle keeps serving its instance.
	stale, err := cached.Get(rec.ID())
	if err != nil {
		t.Fatalf("unexpected error reading record: %v", err)
	}
	if stale.GetString("v") != "old" {
		t.Fatalf("cached store unexpectedly observed external write")
	}

	fresh, err := uncached.Get(rec.ID())
	if err != nil {
		t.Fatalf("unexpected error reading record: %v", err)
	}
	if fresh.GetString("v") != "new" {
		t.Fatalf("uncached store should re-read from disk")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, true)

	rec, err := s.Create(map[string]any{"n": 1}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}

	if err := s.Delete(rec.ID()); err != nil {
		t.Fatalf("unexpected error deleting record: %v", err)
	}
	if err := s.Delete(rec.ID()); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	if _, err := s.Get(rec.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListIDs(t *testing.T) {
	s := newTestStore(t, false)

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		rec, err := s.Create(map[string]any{"n": i}, "")
		if err != nil {
			t.Fatalf("unexpected error creating record: %v", err)
		}
		want[rec.ID()] = true
	}

	// Archived records and stray files are not listed.
	rec, err := s.Create(map[string]any{"n": 99}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}
	if err := s.Archive(rec, "completed"); err != nil {
		t.Fatalf("unexpected error archiving record: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error writing stray file: %v", err)
	}

	ids, err := s.ListIDs()
	if err != nil {
		t.Fatalf("unexpected error listing ids: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected id listed: %s", id)
		}
	}
}

func TestArchiveMovesFileAndIsIdempotent(t *testing.T) {
	s := newTestStore(t, true)

	rec, err := s.Create(map[string]any{"n": 1}, "")
	if err != nil {
		t.Fatalf("unexpected error creating record: %v", err)
	}

	if err := s.Archive(rec, "completed"); err != nil {
		t.Fatalf("unexpected error archiving record: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "completed", rec.ID()+FileExt)); err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
	if _, err := s.Get(rec.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after archive, got %v", err)
	}

	// Archiving again is a no-op.
	if err := s.Archive(rec, "completed"); err != nil {
		t.Fatalf("second archive should be a no-op, got %v", err)
	}
}

package cache

import (
	"testing"
	"time"
)

func TestOpStatsRunningAverage(t *testing.T) {
	s := NewOpStats(10)

	s.Record("k", OpRead, 10*time.Millisecond, 100)
	s.Record("k", OpRead, 20*time.Millisecond, 200)

	top := s.Top(1)
	if len(top) != 1 {
		t.Fatalf("Top(1) returned %d records", len(top))
	}
	r := top[0]
	// (10 + 20) / 2
	if r.AvgCostMs != 15 {
		t.Errorf("AvgCostMs = %v, want 15", r.AvgCostMs)
	}
	if r.Frequency != 2 {
		t.Errorf("Frequency = %d, want 2", r.Frequency)
	}
	if r.SizeBytes != 200 {
		t.Errorf("SizeBytes = %d, want the latest size 200", r.SizeBytes)
	}
}

func TestOpStatsCapacityEvictsOldest(t *testing.T) {
	s := NewOpStats(2)
	tick := time.Unix(0, 0)
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	s.Record("old", OpRead, time.Millisecond, 1)
	s.Record("mid", OpRead, time.Millisecond, 1)
	s.Record("new", OpRead, time.Millisecond, 1)

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want capacity 2", s.Len())
	}
	for _, r := range s.Top(2) {
		if r.Key == "old" {
			t.Error("least recently accessed key should have been evicted")
		}
	}
}

func TestOpStatsAccessRefreshesRecency(t *testing.T) {
	s := NewOpStats(2)
	tick := time.Unix(0, 0)
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	s.Record("a", OpRead, time.Millisecond, 1)
	s.Record("b", OpRead, time.Millisecond, 1)
	s.Record("a", OpRead, time.Millisecond, 1) // a is now the most recent
	s.Record("c", OpRead, time.Millisecond, 1) // evicts b

	keys := map[string]bool{}
	for _, r := range s.Top(2) {
		keys[r.Key] = true
	}
	if !keys["a"] || !keys["c"] || keys["b"] {
		t.Errorf("surviving keys = %v, want a and c", keys)
	}
}

func TestOpStatsTopOrdering(t *testing.T) {
	s := NewOpStats(10)

	for i := 0; i < 3; i++ {
		s.Record("hot", OpRead, time.Millisecond, 1)
	}
	s.Record("warm", OpRead, time.Millisecond, 1)
	s.Record("cold", OpWrite, time.Millisecond, 1)

	top := s.Top(2)
	if len(top) != 2 {
		t.Fatalf("Top(2) returned %d records", len(top))
	}
	if top[0].Key != "hot" {
		t.Errorf("top[0] = %q, want hot", top[0].Key)
	}
	// warm and cold tie at frequency 1; the key order breaks the tie.
	if top[1].Key != "cold" {
		t.Errorf("top[1] = %q, want cold (tie broken by key)", top[1].Key)
	}
}

func TestOpStatsOutcomes(t *testing.T) {
	s := NewOpStats(10)

	s.RecordOutcome(StrategySearch, true)
	s.RecordOutcome(StrategySearch, true)
	s.RecordOutcome(StrategySearch, false)
	s.RecordOutcome(StrategyEmbeddings, false)

	got := s.Outcomes()
	if o := got[StrategySearch]; o.Hits != 2 || o.Misses != 1 {
		t.Errorf("search outcome = %+v, want 2 hits 1 miss", o)
	}
	if o := got[StrategyEmbeddings]; o.Hits != 0 || o.Misses != 1 {
		t.Errorf("embeddings outcome = %+v, want 0 hits 1 miss", o)
	}

	// The snapshot is a copy; mutating it never leaks back.
	snap := got[StrategySearch]
	snap.Hits = 99
	if o := s.Outcomes()[StrategySearch]; o.Hits != 2 {
		t.Errorf("snapshot mutation leaked: hits = %d", o.Hits)
	}
}

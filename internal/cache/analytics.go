package cache

import (
	"sort"
	"sync"
	"time"
)

// OpKind classifies a cache operation for telemetry.
type OpKind string

// Operation kinds.
const (
	OpRead   OpKind = "read"
	OpWrite  OpKind = "write"
	OpDelete OpKind = "delete"
)

// OpRecord is the telemetry row for one logical key. Purely observational;
// it never affects cache correctness.
type OpRecord struct {
	Key        string
	Kind       OpKind
	AvgCostMs  float64
	Frequency  int64
	SizeBytes  int
	LastAccess time.Time
}

// Outcome is a per-strategy hit/miss tally.
type Outcome struct {
	Hits   int64
	Misses int64
}

// OpStats is a bounded in-memory map of per-key operation telemetry.
// When the map is full, each insertion evicts the single least-recently
// accessed entry. The scan is O(n), which is fine at the fixed capacity:
// this is a best-effort view, not a hot path invariant.
type OpStats struct {
	mu       sync.Mutex
	capacity int
	records  map[string]*OpRecord
	outcomes map[string]*Outcome
	now      func() time.Time
}

// DefaultOpStatsCapacity bounds the telemetry map.
const DefaultOpStatsCapacity = 10000

// NewOpStats creates a telemetry map with the given capacity.
func NewOpStats(capacity int) *OpStats {
	if capacity <= 0 {
		capacity = DefaultOpStatsCapacity
	}
	return &OpStats{
		capacity: capacity,
		records:  make(map[string]*OpRecord, capacity),
		outcomes: make(map[string]*Outcome),
		now:      time.Now,
	}
}

// RecordOutcome tallies a strategy-level cache hit or miss.
func (s *OpStats) RecordOutcome(strategy string, hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.outcomes[strategy]
	if !ok {
		o = &Outcome{}
		s.outcomes[strategy] = o
	}
	if hit {
		o.Hits++
	} else {
		o.Misses++
	}
}

// Outcomes returns a snapshot of per-strategy hit/miss tallies.
func (s *OpStats) Outcomes() map[string]Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Outcome, len(s.outcomes))
	for k, o := range s.outcomes {
		out[k] = *o
	}
	return out
}

// Record folds one operation into the telemetry map. The running cost is
// (old+new)/2 rather than a true mean: a cheap approximation that tracks
// recent cost without storing a count-weighted sum.
func (s *OpStats) Record(key string, kind OpKind, cost time.Duration, sizeBytes int) {
	costMs := float64(cost.Microseconds()) / 1000.0

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok {
		r.Kind = kind
		r.AvgCostMs = (r.AvgCostMs + costMs) / 2
		r.Frequency++
		r.SizeBytes = sizeBytes
		r.LastAccess = s.now()
		return
	}

	if len(s.records) >= s.capacity {
		s.evictOldestLocked()
	}

	s.records[key] = &OpRecord{
		Key:        key,
		Kind:       kind,
		AvgCostMs:  costMs,
		Frequency:  1,
		SizeBytes:  sizeBytes,
		LastAccess: s.now(),
	}
}

func (s *OpStats) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, r := range s.records {
		if first || r.LastAccess.Before(oldest) {
			oldestKey = k
			oldest = r.LastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(s.records, oldestKey)
	}
}

// Len returns the current number of tracked keys.
func (s *OpStats) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Top returns up to n records ordered by access frequency descending.
func (s *OpStats) Top(n int) []OpRecord {
	s.mu.Lock()
	out := make([]OpRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

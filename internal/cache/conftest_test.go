package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
	"github.com/josephsamijona/gitchatai-sub000/internal/tasks"
)

// fakeStore is an in-memory stand-in for the Redis backend. It tracks TTLs
// as values rather than deadlines so tests can steer the remaining lifetime
// directly.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	sets    map[string]map[string]struct{}
	getErr  error
	setErr  error
	delErr  error
	mgetErr error
	msetErr error
	getN    int
	setN    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getN++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setN++
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return 0, f.delErr
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			delete(f.ttls, k)
			n++
		}
		if _, ok := f.sets[k]; ok {
			delete(f.sets, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) TTL(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return 0, db.ErrKeyNotFound
	}
	return f.ttls[key], nil
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mgetErr != nil {
		return nil, f.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := f.values[k]; ok {
			out[i] = v
		}
	}
	return out, nil
}

func (f *fakeStore) MSetWithTTL(_ context.Context, items []db.KVItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msetErr != nil {
		return f.msetErr
	}
	for _, it := range items {
		f.values[it.Key] = it.Value
		f.ttls[it.Key] = it.TTL
	}
	return nil
}

func (f *fakeStore) SAdd(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (f *fakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

// setRemainingTTL rewrites the stored TTL for the single cached entry so
// refresh-ahead tests can cross the threshold without sleeping.
func (f *fakeStore) setRemainingTTL(t *testing.T, remaining time.Duration) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ttls) != 1 {
		t.Fatalf("expected exactly one cached entry, got %d", len(f.ttls))
	}
	for k := range f.ttls {
		f.ttls[k] = remaining
	}
}

func (f *fakeStore) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

func newTestPool(t *testing.T) *tasks.Pool {
	t.Helper()
	pool, err := tasks.NewPool(4, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	return pool
}

func newTestManager(t *testing.T, store *fakeStore) *Manager {
	t.Helper()
	return NewManager(store, DefaultCatalogue(), NewOpStats(100), newTestPool(t), "test:", zap.NewNop())
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

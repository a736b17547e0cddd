package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
	"github.com/josephsamijona/gitchatai-sub000/internal/metrics"
	"github.com/josephsamijona/gitchatai-sub000/internal/tasks"
)

// FetchFunc loads a value from the source of truth on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// WriteFunc persists a value to the source of truth and returns the
// confirmed form (which is what gets cached).
type WriteFunc func(ctx context.Context, data []byte) ([]byte, error)

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	MSetWithTTL(ctx context.Context, items []db.KVItem) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Default scheduling parameters.
const (
	DefaultWriteBehindDelay = 5 * time.Second
	DefaultRefreshThreshold = 0.8
)

// Manager implements the cache access patterns over a shared key-value
// backend. The backend is a derived, eventually-consistent view: every
// pattern survives backend unavailability by falling back to the
// authoritative fetch/write path.
type Manager struct {
	store      store
	strategies *Catalogue
	stats      *OpStats
	pool       *tasks.Pool
	logger     *zap.Logger

	keyPrefix        string
	writeBehindDelay time.Duration
	refreshThreshold float64

	refreshMu sync.Mutex
	refreshes map[string]struct{} // physical keys with an in-flight refresh
}

// NewManager creates a cache strategy manager.
func NewManager(
	s store,
	strategies *Catalogue,
	stats *OpStats,
	pool *tasks.Pool,
	keyPrefix string,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:            s,
		strategies:       strategies,
		stats:            stats,
		pool:             pool,
		logger:           logger,
		keyPrefix:        keyPrefix,
		writeBehindDelay: DefaultWriteBehindDelay,
		refreshThreshold: DefaultRefreshThreshold,
		refreshes:        make(map[string]struct{}),
	}
}

// WithWriteBehindDelay overrides the deferred flush delay.
func (m *Manager) WithWriteBehindDelay(d time.Duration) *Manager {
	if d > 0 {
		m.writeBehindDelay = d
	}
	return m
}

// WithRefreshThreshold overrides the refresh-ahead TTL fraction.
func (m *Manager) WithRefreshThreshold(t float64) *Manager {
	if t > 0 && t < 1 {
		m.refreshThreshold = t
	}
	return m
}

// Stats exposes the operation telemetry.
func (m *Manager) Stats() *OpStats { return m.stats }

// physicalKey derives the backend key: hash(namespace:key) scoped under the
// strategy name. Deterministic, so identical logical requests collide and
// cross-namespace collisions cannot happen.
func (m *Manager) physicalKey(cx Context, key string) string {
	sum := sha256.Sum256([]byte(cx.Namespace + ":" + key))
	return m.keyPrefix + "cache:" + cx.Strategy + ":" + hex.EncodeToString(sum[:])
}

func (m *Manager) tagKey(cx Context, tag string) string {
	return m.keyPrefix + "cache:tag:" + cx.Strategy + ":" + tag
}

func (m *Manager) ttlFor(cx Context, strat Strategy) time.Duration {
	if cx.TTLOverride > 0 {
		return cx.TTLOverride
	}
	return strat.DefaultTTL()
}

// Aside implements cache-aside: check the cache, on miss call fetch, store
// the result and return it. Any cache error bypasses the cache entirely;
// the backend is never a hard dependency.
func (m *Manager) Aside(ctx context.Context, cx Context, key string, fetch FetchFunc) ([]byte, error) {
	strat, err := m.strategies.Get(cx.Strategy)
	if err != nil {
		return nil, err
	}
	pk := m.physicalKey(cx, key)

	if data, ok := m.read(ctx, cx, key, pk, "aside"); ok {
		return data, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", cx.Namespace, key, err)
	}

	m.write(ctx, cx, strat, key, pk, data)
	return data, nil
}

// WriteThrough persists via write first and caches only the confirmed value.
// A writer failure propagates and nothing is cached.
func (m *Manager) WriteThrough(
	ctx context.Context, cx Context, key string, data []byte, write WriteFunc,
) ([]byte, error) {
	strat, err := m.strategies.Get(cx.Strategy)
	if err != nil {
		return nil, err
	}

	confirmed, err := write(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("write through %s/%s: %w", cx.Namespace, key, err)
	}

	pk := m.physicalKey(cx, key)
	m.write(ctx, cx, strat, key, pk, confirmed)
	metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, "write_through", "hit").Inc()
	return confirmed, nil
}

// WriteBehind caches immediately and schedules the source-of-truth write
// after the configured delay. If the deferred writer fails, the cache entry
// is invalidated so unpersisted data does not keep serving.
func (m *Manager) WriteBehind(ctx context.Context, cx Context, key string, data []byte, write WriteFunc) error {
	strat, err := m.strategies.Get(cx.Strategy)
	if err != nil {
		return err
	}

	pk := m.physicalKey(cx, key)
	m.write(ctx, cx, strat, key, pk, data)

	submitted := m.pool.SubmitAfter("write-behind:"+key, m.writeBehindDelay, func(taskCtx context.Context) {
		if _, err := write(taskCtx, data); err != nil {
			metrics.CacheWriteBehindFlushTotal.WithLabelValues("error").Inc()
			m.logger.Warn("Write-behind flush failed, invalidating entry",
				zap.String("namespace", cx.Namespace),
				zap.String("key", key),
				zap.Error(err),
			)
			if _, delErr := m.store.Del(taskCtx, pk); delErr != nil {
				m.logger.Warn("Failed to invalidate unpersisted entry", zap.String("key", key), zap.Error(delErr))
			}
			return
		}
		metrics.CacheWriteBehindFlushTotal.WithLabelValues("ok").Inc()
	})
	if !submitted {
		// Pool is shutting down: fall back to a synchronous write so data is
		// not silently lost.
		if _, err := write(ctx, data); err != nil {
			return fmt.Errorf("write behind %s/%s: %w", cx.Namespace, key, err)
		}
	}
	return nil
}

// RefreshAhead serves from cache and, when the remaining TTL drops below
// threshold x defaultTTL, triggers a single non-blocking background refetch.
// The caller always gets the current value immediately; refresh failures are
// logged only and the entry keeps serving until its TTL truly expires.
func (m *Manager) RefreshAhead(ctx context.Context, cx Context, key string, fetch FetchFunc) ([]byte, error) {
	strat, err := m.strategies.Get(cx.Strategy)
	if err != nil {
		return nil, err
	}
	pk := m.physicalKey(cx, key)

	data, ok := m.read(ctx, cx, key, pk, "refresh_ahead")
	if !ok {
		fetched, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch %s/%s: %w", cx.Namespace, key, err)
		}
		m.write(ctx, cx, strat, key, pk, fetched)
		return fetched, nil
	}

	ttl := m.ttlFor(cx, strat)
	remaining, err := m.store.TTL(ctx, pk)
	if err == nil && remaining > 0 && float64(remaining) < m.refreshThreshold*float64(ttl) {
		m.triggerRefresh(cx, strat, key, pk, fetch)
	}

	return data, nil
}

// triggerRefresh starts at most one background refetch per physical key.
func (m *Manager) triggerRefresh(cx Context, strat Strategy, key, pk string, fetch FetchFunc) {
	m.refreshMu.Lock()
	if _, inFlight := m.refreshes[pk]; inFlight {
		m.refreshMu.Unlock()
		return
	}
	m.refreshes[pk] = struct{}{}
	m.refreshMu.Unlock()

	submitted := m.pool.Submit("refresh-ahead:"+key, func(taskCtx context.Context) {
		defer func() {
			m.refreshMu.Lock()
			delete(m.refreshes, pk)
			m.refreshMu.Unlock()
		}()

		fresh, err := fetch(taskCtx)
		if err != nil {
			metrics.CacheRefreshAheadTotal.WithLabelValues("error").Inc()
			m.logger.Warn("Refresh-ahead refetch failed",
				zap.String("namespace", cx.Namespace),
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		m.write(taskCtx, cx, strat, key, pk, fresh)
		metrics.CacheRefreshAheadTotal.WithLabelValues("ok").Inc()
	})
	if !submitted {
		m.refreshMu.Lock()
		delete(m.refreshes, pk)
		m.refreshMu.Unlock()
	}
}

// BulkGet fetches many logical keys in one pipelined round trip. The result
// maps logical keys to decoded values; missing or undecodable entries are
// simply absent. A backend failure yields an empty map, never an error.
func (m *Manager) BulkGet(ctx context.Context, cx Context, keys []string) map[string][]byte {
	if _, err := m.strategies.Get(cx.Strategy); err != nil {
		m.logger.Error("BulkGet with unregistered strategy", zap.String("strategy", cx.Strategy))
		return nil
	}
	if len(keys) == 0 {
		return nil
	}

	physical := make([]string, len(keys))
	for i, k := range keys {
		physical[i] = m.physicalKey(cx, k)
	}

	start := time.Now()
	values, err := m.store.MGet(ctx, physical)
	metrics.CacheOperationDuration.WithLabelValues("bulk_read").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, "bulk", "bypass").Inc()
		m.logger.Warn("Bulk cache read failed", zap.String("strategy", cx.Strategy), zap.Error(err))
		return nil
	}

	out := make(map[string][]byte, len(keys))
	for i, raw := range values {
		if raw == nil {
			metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, "bulk", "miss").Inc()
			continue
		}
		data, err := decodePayload(raw)
		if err != nil {
			m.logger.Warn("Undecodable cache payload", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, "bulk", "hit").Inc()
		m.stats.Record(cx.Namespace+":"+keys[i], OpRead, time.Since(start), len(data))
		out[keys[i]] = data
	}
	return out
}

// BulkSet stores many logical keys in one pipelined round trip and registers
// each key under the context tags. Tag sets expire alongside the entries.
func (m *Manager) BulkSet(ctx context.Context, cx Context, items map[string][]byte) error {
	strat, err := m.strategies.Get(cx.Strategy)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	ttl := m.ttlFor(cx, strat)
	kvs := make([]db.KVItem, 0, len(items))
	physical := make([]string, 0, len(items))
	for k, v := range items {
		pk := m.physicalKey(cx, k)
		physical = append(physical, pk)
		kvs = append(kvs, db.KVItem{Key: pk, Value: encodePayload(v, cx.Compress), TTL: ttl})
		m.stats.Record(cx.Namespace+":"+k, OpWrite, 0, len(v))
	}

	start := time.Now()
	if err := m.store.MSetWithTTL(ctx, kvs); err != nil {
		m.logger.Warn("Bulk cache write failed", zap.String("strategy", cx.Strategy), zap.Error(err))
		return nil // cache is best-effort; the caller's data is already safe
	}
	metrics.CacheOperationDuration.WithLabelValues("bulk_write").Observe(time.Since(start).Seconds())

	m.registerTags(ctx, cx, physical, ttl)
	return nil
}

// InvalidateTag deletes every entry registered under the tag, then the tag
// set itself. Returns the number of entries removed.
func (m *Manager) InvalidateTag(ctx context.Context, cx Context, tag string) (int64, error) {
	tk := m.tagKey(cx, tag)

	members, err := m.store.SMembers(ctx, tk)
	if err != nil {
		return 0, fmt.Errorf("read tag %q: %w", tag, err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	removed, err := m.store.Del(ctx, members...)
	if err != nil {
		return 0, fmt.Errorf("invalidate tag %q: %w", tag, err)
	}
	if _, err := m.store.Del(ctx, tk); err != nil {
		m.logger.Warn("Failed to drop tag set", zap.String("tag", tag), zap.Error(err))
	}

	for range members {
		m.stats.Record(cx.Namespace+":"+tag, OpDelete, 0, 0)
	}
	return removed, nil
}

// Delete removes a single logical key.
func (m *Manager) Delete(ctx context.Context, cx Context, key string) error {
	pk := m.physicalKey(cx, key)
	start := time.Now()
	if _, err := m.store.Del(ctx, pk); err != nil {
		return fmt.Errorf("delete %s/%s: %w", cx.Namespace, key, err)
	}
	metrics.CacheOperationDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	m.stats.Record(cx.Namespace+":"+key, OpDelete, time.Since(start), 0)
	return nil
}

// read attempts a cache hit. Returns (data, true) only on a decodable hit.
func (m *Manager) read(ctx context.Context, cx Context, key, pk, pattern string) ([]byte, bool) {
	start := time.Now()
	raw, err := m.store.Get(ctx, pk)
	cost := time.Since(start)
	metrics.CacheOperationDuration.WithLabelValues("read").Observe(cost.Seconds())

	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, pattern, "miss").Inc()
			m.stats.RecordOutcome(cx.Strategy, false)
		} else {
			metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, pattern, "bypass").Inc()
			m.logger.Warn("Cache read failed, bypassing",
				zap.String("namespace", cx.Namespace),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return nil, false
	}

	data, err := decodePayload(raw)
	if err != nil {
		m.logger.Warn("Undecodable cache payload", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	metrics.CacheRequestsTotal.WithLabelValues(cx.Strategy, pattern, "hit").Inc()
	m.stats.RecordOutcome(cx.Strategy, true)
	m.stats.Record(cx.Namespace+":"+key, OpRead, cost, len(data))
	return data, true
}

// write stores an entry best-effort and registers its tags.
func (m *Manager) write(ctx context.Context, cx Context, strat Strategy, key, pk string, data []byte) {
	ttl := m.ttlFor(cx, strat)

	start := time.Now()
	err := m.store.SetWithTTL(ctx, pk, encodePayload(data, cx.Compress), ttl)
	cost := time.Since(start)
	metrics.CacheOperationDuration.WithLabelValues("write").Observe(cost.Seconds())

	if err != nil {
		m.logger.Warn("Cache write failed",
			zap.String("namespace", cx.Namespace),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}

	m.stats.Record(cx.Namespace+":"+key, OpWrite, cost, len(data))
	m.registerTags(ctx, cx, []string{pk}, ttl)
}

// registerTags adds physical keys to each tag set and mirrors the entry TTL
// onto the set.
func (m *Manager) registerTags(ctx context.Context, cx Context, physical []string, ttl time.Duration) {
	for _, tag := range cx.Tags {
		tk := m.tagKey(cx, tag)
		if err := m.store.SAdd(ctx, tk, physical...); err != nil {
			m.logger.Warn("Failed to register cache tag", zap.String("tag", tag), zap.Error(err))
			continue
		}
		if err := m.store.Expire(ctx, tk, ttl, false); err != nil {
			m.logger.Warn("Failed to expire cache tag", zap.String("tag", tag), zap.Error(err))
		}
	}
}

// Package cache implements the multi-pattern cache layer: cache-aside,
// write-through, write-behind and refresh-ahead access over a shared
// key-value backend, with tagged invalidation and bulk pipelined access.
package cache

import (
	"fmt"
	"sort"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// EvictionPolicy names how a strategy expects its backend space to be reclaimed.
type EvictionPolicy string

// Eviction policies.
const (
	EvictLRU  EvictionPolicy = "lru"
	EvictFIFO EvictionPolicy = "fifo"
	EvictTTL  EvictionPolicy = "ttl"
)

// Strategy is a named cache policy. Read-only after registration.
type Strategy struct {
	name       string
	defaultTTL time.Duration
	maxSize    int // 0 = unbounded
	eviction   EvictionPolicy
}

// NewStrategy creates a cache strategy.
func NewStrategy(name string, defaultTTL time.Duration, maxSize int, eviction EvictionPolicy) Strategy {
	return Strategy{name: name, defaultTTL: defaultTTL, maxSize: maxSize, eviction: eviction}
}

// Name returns the strategy name.
func (s Strategy) Name() string { return s.name }

// DefaultTTL returns the default entry lifetime.
func (s Strategy) DefaultTTL() time.Duration { return s.defaultTTL }

// MaxSize returns the advisory entry cap (0 = unbounded).
func (s Strategy) MaxSize() int { return s.maxSize }

// Eviction returns the eviction policy.
func (s Strategy) Eviction() EvictionPolicy { return s.eviction }

// Catalogue is the fixed set of strategies registered at startup.
// It is never mutated after construction, so lookups need no locking.
type Catalogue struct {
	strategies map[string]Strategy
}

// Well-known strategy names.
const (
	StrategyEmbeddings   = "embeddings"
	StrategySearch       = "search"
	StrategySessions     = "sessions"
	StrategyAPIResponses = "api_responses"
	StrategyDatabase     = "database"
	StrategyStatic       = "static"
	StrategyRealtime     = "realtime"
)

// NewCatalogue builds a catalogue from the given strategies.
func NewCatalogue(strategies ...Strategy) *Catalogue {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.name] = s
	}
	return &Catalogue{strategies: m}
}

// DefaultCatalogue returns the standard strategy set.
func DefaultCatalogue() *Catalogue {
	return NewCatalogue(
		NewStrategy(StrategyEmbeddings, 24*time.Hour, 50000, EvictLRU),
		NewStrategy(StrategySearch, 5*time.Minute, 10000, EvictLRU),
		NewStrategy(StrategySessions, 30*time.Minute, 0, EvictTTL),
		NewStrategy(StrategyAPIResponses, time.Minute, 5000, EvictFIFO),
		NewStrategy(StrategyDatabase, 10*time.Minute, 20000, EvictLRU),
		NewStrategy(StrategyStatic, 24*time.Hour, 0, EvictTTL),
		NewStrategy(StrategyRealtime, 10*time.Second, 1000, EvictFIFO),
	)
}

// Strategies returns all registered strategies sorted by name.
func (c *Catalogue) Strategies() []Strategy {
	out := make([]Strategy, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Get looks up a strategy by name. An unknown name is a config bug and fails
// fast with domain.ErrUnknownStrategy.
func (c *Catalogue) Get(name string) (Strategy, error) {
	s, ok := c.strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, name)
	}
	return s, nil
}

// Context holds the per-call caching parameters.
type Context struct {
	// Namespace scopes logical keys; identical (namespace, key) pairs always
	// collide on the same physical key, distinct namespaces never do.
	Namespace string
	// Strategy names the policy from the catalogue.
	Strategy string
	// Tags register the entry for group invalidation.
	Tags []string
	// Priority is an eviction hint carried through to analytics; it does not
	// affect correctness.
	Priority int
	// Compress stores the payload s2-compressed.
	Compress bool
	// TTLOverride replaces the strategy default when positive.
	TTLOverride time.Duration
}

package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	Pipeliner
	SetStore
	RankStore
	ListStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes keys and returns the number actually deleted.
	Del(ctx context.Context, keys ...string) (int64, error)
	// TTL returns the remaining lifetime of a key. ErrKeyNotFound for missing
	// keys; zero duration for keys without an expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// KVItem holds a single key+value+ttl triple for pipelined SET.
type KVItem struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Pipeliner batches multiple keys into one backend round trip.
type Pipeliner interface {
	// MGet returns values in key order; missing keys yield nil entries.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	MSetWithTTL(ctx context.Context, items []KVItem) error
}

// SetStore provides unordered set operations (cache tag bookkeeping).
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// ScoredMember is a sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// RankStore provides sorted-set operations (popular query tracking).
type RankStore interface {
	ZIncrBy(ctx context.Context, key string, incr float64, member string) error
	// ZRevRange returns the top members by descending score, inclusive bounds.
	ZRevRange(ctx context.Context, key string, start, stop int) ([]ScoredMember, error)
}

// ListStore provides list operations (recent query log).
type ListStore interface {
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchBM25(ctx context.Context, q *TextQuery) (*SearchResult, error)
}

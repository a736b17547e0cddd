// Package embcache decorates an embedder with cache-aside storage so repeat
// queries never pay for a second provider call.
package embcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// asideCache is the consumer interface for the cache layer (ISP).
type asideCache interface {
	Aside(ctx context.Context, cx cache.Context, key string, fetch cache.FetchFunc) ([]byte, error)
}

// CachedEmbedder caches embedding vectors under the embeddings strategy.
type CachedEmbedder struct {
	inner      domain.Embedder
	cache      asideCache
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	c asideCache,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		cache:      c,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TokenUsage is zero, no real tokens were consumed.
// Cache miss: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	cx := cache.Context{
		Namespace: "embeddings",
		Strategy:  cache.StrategyEmbeddings,
	}

	var missResult domain.EmbeddingResult
	missed := false

	data, err := c.cache.Aside(ctx, cx, text, func(fetchCtx context.Context) ([]byte, error) {
		missed = true
		result, err := c.inner.Embed(fetchCtx, text)
		if err != nil {
			return nil, err
		}
		missResult = result
		return vectorToBytes(result.Embedding), nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if missed {
		c.incCache("miss")
		return missResult, nil
	}

	vec, err := bytesToVector(data)
	if err != nil {
		// Corrupt cache entry: fall back to the provider.
		c.logger.Warn("Failed to parse cached embedding", zap.Error(err))
		c.incCache("miss")
		result, err := c.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
		}
		return result, nil
	}

	c.incCache("hit")
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

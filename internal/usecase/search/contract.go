package search

import (
	"context"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// SourceAdapter searches one content index. An adapter never mixes kinds.
type SourceAdapter interface {
	Kind() domain.Kind
	SearchVector(ctx context.Context, vector []float32, tags map[string]string, k int) ([]domain.Candidate, error)
	SearchText(ctx context.Context, query string, tags map[string]string, k int) ([]domain.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// QueryLog is the analytics sink and popular-query source.
type QueryLog interface {
	Append(ctx context.Context, rec domain.AnalyticsRecord) error
	Popular(ctx context.Context, n int) ([]string, error)
}

// ResultCache is the consumer interface for query-result caching (ISP).
type ResultCache interface {
	Aside(ctx context.Context, cx cache.Context, key string, fetch cache.FetchFunc) ([]byte, error)
}

// TaskRunner schedules fire-and-forget work (analytics appends).
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context)) bool
}

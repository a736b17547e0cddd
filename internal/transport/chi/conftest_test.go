package chi

import (
	"context"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
	healthuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/health"
	searchuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/search"
)

var errBackendDown = errors.New("backend down")

// stubSource returns canned candidates for one kind.
type stubSource struct {
	kind   domain.Kind
	vector []domain.Candidate
	text   []domain.Candidate
	err    error
}

func (s *stubSource) Kind() domain.Kind { return s.kind }

func (s *stubSource) SearchVector(
	_ context.Context, _ []float32, _ map[string]string, _ int,
) ([]domain.Candidate, error) {
	return s.vector, s.err
}

func (s *stubSource) SearchText(
	_ context.Context, _ string, _ map[string]string, _ int,
) ([]domain.Candidate, error) {
	return s.text, s.err
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 3}, nil
}

type stubQueryLog struct {
	popular []string
}

func (l *stubQueryLog) Append(context.Context, domain.AnalyticsRecord) error { return nil }

func (l *stubQueryLog) Popular(context.Context, int) ([]string, error) {
	return l.popular, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubEmbeddingChecker struct {
	err error
}

func (c stubEmbeddingChecker) HealthCheck(context.Context) error { return c.err }

// testEnv bundles the router with the pieces tests may want to seed.
type testEnv struct {
	handler http.Handler
	stats   *cache.OpStats
}

func newTestEnv(sources []searchuc.SourceAdapter, pingErr error) testEnv {
	logger := zap.NewNop()
	svc := searchuc.New(sources, stubEmbedder{}, nil, &stubQueryLog{}, nil, logger)
	health := healthuc.New(stubPinger{err: pingErr}, nil)
	stats := cache.NewOpStats(100)

	server := NewServer(svc, health, stats, cache.DefaultCatalogue(), logger)

	r := chirouter.NewRouter()
	server.Routes(r)
	return testEnv{handler: r, stats: stats}
}

func docCandidate(id string, relevance float64, createdAt time.Time) domain.Candidate {
	c := domain.NewDocument(id, domain.CandidateFields{
		Content:   "content " + id,
		Title:     "Doc " + id,
		CreatedAt: createdAt,
		Source:    "upload",
	})
	return c.WithLexicalRelevance(relevance)
}

func codeCandidate(id, language string, relevance float64) domain.Candidate {
	c := domain.NewMessage(id, domain.CandidateFields{
		Content:  "func main() {}",
		Language: language,
	})
	return c.WithLexicalRelevance(relevance)
}

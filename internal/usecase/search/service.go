// Package search orchestrates the hybrid search pipeline: embed, fan out to
// the content sources, merge, rank, filter, decorate with facets and
// suggestions, and record analytics.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
	"github.com/josephsamijona/gitchatai-sub000/internal/metrics"
)

// DefaultFreshnessWindow is the linear freshness decay span.
const DefaultFreshnessWindow = 30 * 24 * time.Hour

// Service is the search orchestration entry point.
type Service struct {
	sources []SourceAdapter
	embed   Embedder
	cache   ResultCache
	qlog    QueryLog
	tasks   TaskRunner
	logger  *zap.Logger

	freshnessWindow time.Duration
	now             func() time.Time
}

// New creates a search service. cache and tasks may be nil: without a cache
// every search recomputes, without a task runner analytics are skipped.
func New(
	sources []SourceAdapter,
	embed Embedder,
	resultCache ResultCache,
	qlog QueryLog,
	tasks TaskRunner,
	logger *zap.Logger,
) *Service {
	return &Service{
		sources:         sources,
		embed:           embed,
		cache:           resultCache,
		qlog:            qlog,
		tasks:           tasks,
		logger:          logger,
		freshnessWindow: DefaultFreshnessWindow,
		now:             time.Now,
	}
}

// WithFreshnessWindow overrides the freshness decay span.
func (s *Service) WithFreshnessWindow(w time.Duration) *Service {
	if w > 0 {
		s.freshnessWindow = w
	}
	return s
}

// Search runs the full pipeline for a validated query. Identical queries
// within the search strategy TTL are served from cache.
func (s *Service) Search(ctx context.Context, q *domain.Query) (*domain.Result, error) {
	start := s.now()

	result, err := s.cachedSearch(ctx, q)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(q.Scope()), status).Inc()
	if err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(start)
	metrics.SearchStageDuration.WithLabelValues("total").Observe(elapsed.Seconds())
	metrics.SearchResultsReturned.Observe(float64(result.Count))

	s.recordAnalytics(q, result.Count, elapsed)
	return result, nil
}

// cachedSearch wraps the pipeline in cache-aside under the search strategy.
func (s *Service) cachedSearch(ctx context.Context, q *domain.Query) (*domain.Result, error) {
	if s.cache == nil {
		return s.executeSearch(ctx, q)
	}

	cx := cache.Context{
		Namespace: "search",
		Strategy:  cache.StrategySearch,
	}
	if q.ProjectID() != "" {
		cx.Tags = []string{"project:" + q.ProjectID()}
	}

	data, err := s.cache.Aside(ctx, cx, queryCacheKey(q), func(fetchCtx context.Context) ([]byte, error) {
		result, err := s.executeSearch(fetchCtx, q)
		if err != nil {
			return nil, err
		}
		return encodeResult(result)
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(data)
	if err != nil {
		// Cached garbage: recompute rather than fail the search.
		s.logger.Warn("Dropping undecodable cached search result", zap.Error(err))
		return s.executeSearch(ctx, q)
	}
	return result, nil
}

// executeSearch is one uncached pipeline run.
func (s *Service) executeSearch(ctx context.Context, q *domain.Query) (*domain.Result, error) {
	var timings domain.StageTimings
	pipelineStart := s.now()

	// Embedding failure degrades to text-only search; the pipeline never
	// dies because the provider does.
	embedStart := s.now()
	var vector []float32
	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		s.logger.Warn("Embedding failed, degrading to text-only search",
			zap.String("scope", string(q.Scope())),
			zap.Error(err),
		)
	} else {
		vector = emb.Embedding
	}
	timings.Embed = s.now().Sub(embedStart)
	metrics.SearchStageDuration.WithLabelValues("embed").Observe(timings.Embed.Seconds())

	dispatchStart := s.now()
	lists := s.dispatch(ctx, q, vector)
	timings.Dispatch = s.now().Sub(dispatchStart)
	metrics.SearchStageDuration.WithLabelValues("dispatch").Observe(timings.Dispatch.Seconds())

	rankStart := s.now()
	ranked := rank(merge(lists), q.Ranking(), s.now(), s.freshnessWindow)
	ranked = applyFilters(ranked, q.Filters())
	if len(ranked) > q.Limit() {
		ranked = ranked[:q.Limit()]
	}
	timings.Rank = s.now().Sub(rankStart)
	metrics.SearchStageDuration.WithLabelValues("rank").Observe(timings.Rank.Seconds())

	timings.Total = s.now().Sub(pipelineStart)

	return &domain.Result{
		Results:     ranked,
		Facets:      buildFacets(ranked),
		Suggestions: s.suggest(ctx, q.Text(), q.ProjectID()),
		Count:       len(ranked),
		Timings:     timings,
	}, nil
}

// AdvancedSearch parses operator syntax (exact phrases, field:value pairs,
// -exclusions, AND/OR) into a structured query and delegates to Search.
// Exclusions are applied to the final result set.
func (s *Service) AdvancedSearch(
	ctx context.Context,
	raw string,
	scope domain.Scope,
	projectID, userID string,
	ranking domain.RankingConfig,
	limit int,
) (*domain.Result, error) {
	parsed := parseAdvancedQuery(raw)

	text := parsed.searchText()
	if text == "" {
		return nil, fmt.Errorf("%w: advanced query has no searchable terms", domain.ErrEmptyQuery)
	}

	q, err := domain.NewQuery(text, scope, projectID, userID, parsed.fields, ranking, limit)
	if err != nil {
		return nil, err
	}

	result, err := s.Search(ctx, &q)
	if err != nil {
		return nil, err
	}

	if len(parsed.excluded) > 0 {
		result.Results = applyExclusions(result.Results, parsed.excluded)
		result.Count = len(result.Results)
		result.Facets = buildFacets(result.Results)
	}
	return result, nil
}

// SearchCode finds code-bearing content: text search over messages and
// documents, keeping only hits that carry a language.
func (s *Service) SearchCode(
	ctx context.Context, query, projectID, language string, limit int,
) ([]domain.CodeResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 || limit > domain.MaxLimit {
		limit = domain.DefaultLimit
	}

	tags := make(map[string]string)
	if projectID != "" {
		tags[tagProject] = projectID
	}
	if language != "" {
		tags[tagLanguage] = language
	}

	var candidates []domain.Candidate
	for _, kind := range []domain.Kind{domain.KindMessage, domain.KindDocument} {
		for _, adapter := range s.adaptersFor(kind) {
			got, err := adapter.SearchText(ctx, query, tags, limit)
			if err != nil {
				s.absorbSourceError(kind, "text", err)
				continue
			}
			candidates = append(candidates, got...)
		}
	}

	out := make([]domain.CodeResult, 0, len(candidates))
	for _, c := range merge([][]domain.Candidate{candidates}) {
		if c.Language() == "" {
			continue
		}
		score := 0.0
		if r, ok := c.LexicalRelevance(); ok {
			score = r / 100
		}
		out = append(out, domain.CodeResult{
			ID:        c.ID(),
			Content:   c.Content(),
			Language:  c.Language(),
			ProjectID: c.ProjectID(),
			Score:     score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordAnalytics appends the search record off the request path. A full
// task pool or a sink failure costs telemetry, never the search.
func (s *Service) recordAnalytics(q *domain.Query, count int, elapsed time.Duration) {
	if s.tasks == nil || s.qlog == nil {
		return
	}

	rec := domain.AnalyticsRecord{
		Query:            q.Text(),
		Scope:            q.Scope(),
		ResultCount:      count,
		ProcessingTimeMs: elapsed.Milliseconds(),
		UserID:           q.UserID(),
		ProjectID:        q.ProjectID(),
		Timestamp:        s.now(),
	}

	submitted := s.tasks.Submit("search-analytics", func(taskCtx context.Context) {
		if err := s.qlog.Append(taskCtx, rec); err != nil {
			s.logger.Warn("Failed to append search analytics", zap.Error(err))
		}
	})
	if !submitted {
		s.logger.Warn("Analytics task rejected, dropping record")
	}
}

// queryCacheKey canonicalizes a query into a deterministic cache key.
// Filters are sorted so argument order does not fragment the cache.
func queryCacheKey(q *domain.Query) string {
	filters := append([]domain.Filter(nil), q.Filters()...)
	sort.Slice(filters, func(i, j int) bool {
		if filters[i].Field != filters[j].Field {
			return filters[i].Field < filters[j].Field
		}
		return filters[i].Value < filters[j].Value
	})

	var b strings.Builder
	b.WriteString(q.Text())
	b.WriteString("|scope=")
	b.WriteString(string(q.Scope()))
	b.WriteString("|project=")
	b.WriteString(q.ProjectID())
	for _, f := range filters {
		fmt.Fprintf(&b, "|f:%s=%s", f.Field, f.Value)
		if f.Field == domain.FilterDateRange {
			fmt.Fprintf(&b, ":%d-%d", f.Start.Unix(), f.End.Unix())
		}
	}
	r := q.Ranking()
	fmt.Fprintf(&b, "|w=%g,%g,%g,%g|limit=%d",
		r.VectorWeight, r.TextWeight, r.FreshnessWeight, r.AuthorityWeight, q.Limit())
	return b.String()
}

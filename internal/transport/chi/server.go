package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
	healthuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/health"
	searchuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/search"
)

// defaultHotKeys bounds the /cache/stats hot key list when no limit is given.
const defaultHotKeys = 10

// Error response codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeEmbeddingError   = "embedding_provider_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search and cache services over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	stats         *cache.OpStats
	catalogue     *cache.Catalogue
	logger        *zap.Logger
	ranking       domain.RankingConfig
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	stats *cache.OpStats,
	catalogue *cache.Catalogue,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		health:    health,
		stats:     stats,
		catalogue: catalogue,
		logger:    logger,
		ranking:   domain.DefaultRankingConfig(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownScope, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingError),
	}
	return s
}

// WithDefaultRanking replaces the weight set applied when a request carries
// no explicit weights.
func (s *Server) WithDefaultRanking(cfg domain.RankingConfig) *Server {
	s.ranking = cfg
	return s
}

// Routes registers all HTTP routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Post("/search/advanced", s.AdvancedSearch)
	r.Get("/search/code", s.SearchCode)
	r.Get("/search/suggestions", s.Suggestions)
	r.Get("/cache/stats", s.CacheStats)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := domain.NewQuery(
		req.Query,
		domain.Scope(req.Scope),
		req.ProjectID,
		req.UserID,
		filtersFromDTO(req.Filters),
		s.rankingFor(req.Weights),
		req.Limit,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(result))
}

// AdvancedSearch handles POST /search/advanced. The query string may carry
// quoted phrases, field:value expressions, -exclusions and OR.
func (s *Server) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req advancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.search.AdvancedSearch(
		r.Context(),
		req.Query,
		domain.Scope(req.Scope),
		req.ProjectID,
		req.UserID,
		s.rankingFor(req.Weights),
		req.Limit,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(result))
}

// SearchCode handles GET /search/code.
func (s *Server) SearchCode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	results, err := s.search.SearchCode(
		r.Context(),
		q.Get("q"),
		q.Get("project_id"),
		q.Get("language"),
		intParam(q.Get("limit")),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]codeResultDTO, len(results))
	for i, cr := range results {
		items[i] = codeResultDTO{
			ID:        cr.ID,
			Content:   cr.Content,
			Language:  cr.Language,
			ProjectID: cr.ProjectID,
			Score:     cr.Score,
		}
	}
	writeJSON(w, http.StatusOK, codeSearchResponse{Results: items, Count: len(items)})
}

// Suggestions handles GET /search/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	suggestions, err := s.search.GetSuggestions(
		r.Context(),
		q.Get("q"),
		q.Get("project_id"),
		intParam(q.Get("limit")),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]suggestionDTO, len(suggestions))
	for i, sg := range suggestions {
		items[i] = suggestionDTO{Text: sg.Text, Origin: sg.Origin}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: items})
}

// CacheStats handles GET /cache/stats. The n query parameter bounds the hot
// key list.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	n := intParam(r.URL.Query().Get("n"))
	if n <= 0 {
		n = defaultHotKeys
	}

	resp := cacheStatsResponse{
		TrackedKeys: s.stats.Len(),
		HotKeys:     []hotKeyDTO{},
		Strategies:  []strategyDTO{},
	}
	for _, rec := range s.stats.Top(n) {
		resp.HotKeys = append(resp.HotKeys, hotKeyDTO{
			Key:        rec.Key,
			Kind:       string(rec.Kind),
			AvgCostMs:  rec.AvgCostMs,
			Frequency:  rec.Frequency,
			SizeBytes:  rec.SizeBytes,
			LastAccess: rec.LastAccess.UTC(),
		})
	}
	outcomes := s.stats.Outcomes()
	for _, strat := range s.catalogue.Strategies() {
		o := outcomes[strat.Name()]
		resp.Strategies = append(resp.Strategies, strategyDTO{
			Name:       strat.Name(),
			TTLSeconds: int(strat.DefaultTTL().Seconds()),
			MaxSize:    strat.MaxSize(),
			Eviction:   string(strat.Eviction()),
			Hits:       o.Hits,
			Misses:     o.Misses,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// rankingFor resolves the effective weight set for a request. Absent fields
// keep the server default.
func (s *Server) rankingFor(w *weightsDTO) domain.RankingConfig {
	cfg := s.ranking
	if w == nil {
		return cfg
	}
	if w.Vector != nil {
		cfg.VectorWeight = *w.Vector
	}
	if w.Text != nil {
		cfg.TextWeight = *w.Text
	}
	if w.Freshness != nil {
		cfg.FreshnessWeight = *w.Freshness
	}
	if w.Authority != nil {
		cfg.AuthorityWeight = *w.Authority
	}
	return cfg
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrQueryTooLong,
		domain.ErrInvalidFilter,
		domain.ErrUnknownScope,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func filtersFromDTO(dtos []filterDTO) []domain.Filter {
	if len(dtos) == 0 {
		return nil
	}
	filters := make([]domain.Filter, len(dtos))
	for i, d := range dtos {
		f := domain.Filter{Field: d.Field, Value: d.Value}
		if d.Start != nil {
			f.Start = *d.Start
		}
		if d.End != nil {
			f.End = *d.End
		}
		filters[i] = f
	}
	return filters
}

func resultToResponse(result *domain.Result) searchResponse {
	items := make([]resultItemDTO, len(result.Results))
	for i, sr := range result.Results {
		items[i] = scoredResultToDTO(sr)
	}

	suggestions := make([]suggestionDTO, len(result.Suggestions))
	for i, sg := range result.Suggestions {
		suggestions[i] = suggestionDTO{Text: sg.Text, Origin: sg.Origin}
	}

	return searchResponse{
		Results:     items,
		Count:       result.Count,
		Facets:      facetsToDTO(result.Facets),
		Suggestions: suggestions,
		Timings: timingsDTO{
			EmbedMs:    durationMs(result.Timings.Embed),
			DispatchMs: durationMs(result.Timings.Dispatch),
			RankMs:     durationMs(result.Timings.Rank),
			TotalMs:    durationMs(result.Timings.Total),
		},
	}
}

func scoredResultToDTO(sr domain.ScoredResult) resultItemDTO {
	c := sr.Candidate
	dto := resultItemDTO{
		Kind:           string(c.Kind()),
		ID:             c.ID(),
		Content:        c.Content(),
		Title:          c.Title(),
		Author:         c.Author(),
		ProjectID:      c.ProjectID(),
		Source:         c.Source(),
		Language:       c.Language(),
		VectorScore:    sr.VectorScore,
		TextScore:      sr.TextScore,
		FreshnessScore: sr.FreshnessScore,
		AuthorityScore: sr.AuthorityScore,
		CompositeScore: sr.CompositeScore,
	}
	if !c.CreatedAt().IsZero() {
		ts := c.CreatedAt().UTC()
		dto.CreatedAt = &ts
	}
	return dto
}

func facetsToDTO(f domain.Facets) facetsDTO {
	return facetsDTO{
		ByKind:   mapOrEmpty(f.ByKind),
		ByMonth:  mapOrEmpty(f.ByMonth),
		BySource: mapOrEmpty(f.BySource),
	}
}

func mapOrEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

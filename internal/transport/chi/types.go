package chi

import "time"

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// filterDTO is one post-ranking predicate. Start/End apply to dateRange only.
type filterDTO struct {
	Field string     `json:"field"`
	Value string     `json:"value,omitempty"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// weightsDTO overrides the server default weights field by field; an absent
// field keeps its default.
type weightsDTO struct {
	Vector    *float64 `json:"vector,omitempty"`
	Text      *float64 `json:"text,omitempty"`
	Freshness *float64 `json:"freshness,omitempty"`
	Authority *float64 `json:"authority,omitempty"`
}

type searchRequest struct {
	Query     string      `json:"query"`
	Scope     string      `json:"scope,omitempty"`
	ProjectID string      `json:"project_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Filters   []filterDTO `json:"filters,omitempty"`
	Weights   *weightsDTO `json:"weights,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

type advancedSearchRequest struct {
	Query     string      `json:"query"`
	Scope     string      `json:"scope,omitempty"`
	ProjectID string      `json:"project_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Weights   *weightsDTO `json:"weights,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

type resultItemDTO struct {
	Kind           string     `json:"kind"`
	ID             string     `json:"id"`
	Content        string     `json:"content,omitempty"`
	Title          string     `json:"title,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Author         string     `json:"author,omitempty"`
	ProjectID      string     `json:"project_id,omitempty"`
	Source         string     `json:"source,omitempty"`
	Language       string     `json:"language,omitempty"`
	VectorScore    float64    `json:"vector_score"`
	TextScore      float64    `json:"text_score"`
	FreshnessScore float64    `json:"freshness_score"`
	AuthorityScore float64    `json:"authority_score"`
	CompositeScore float64    `json:"composite_score"`
}

type facetsDTO struct {
	ByKind   map[string]int `json:"by_kind"`
	ByMonth  map[string]int `json:"by_month"`
	BySource map[string]int `json:"by_source"`
}

type suggestionDTO struct {
	Text   string `json:"text"`
	Origin string `json:"origin"`
}

type timingsDTO struct {
	EmbedMs    float64 `json:"embed_ms"`
	DispatchMs float64 `json:"dispatch_ms"`
	RankMs     float64 `json:"rank_ms"`
	TotalMs    float64 `json:"total_ms"`
}

type searchResponse struct {
	Results     []resultItemDTO `json:"results"`
	Count       int             `json:"count"`
	Facets      facetsDTO       `json:"facets"`
	Suggestions []suggestionDTO `json:"suggestions"`
	Timings     timingsDTO      `json:"timings"`
}

type codeResultDTO struct {
	ID        string  `json:"id"`
	Content   string  `json:"content,omitempty"`
	Language  string  `json:"language"`
	ProjectID string  `json:"project_id,omitempty"`
	Score     float64 `json:"score"`
}

type codeSearchResponse struct {
	Results []codeResultDTO `json:"results"`
	Count   int             `json:"count"`
}

type suggestionsResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type hotKeyDTO struct {
	Key        string    `json:"key"`
	Kind       string    `json:"kind"`
	AvgCostMs  float64   `json:"avg_cost_ms"`
	Frequency  int64     `json:"frequency"`
	SizeBytes  int       `json:"size_bytes"`
	LastAccess time.Time `json:"last_access"`
}

type strategyDTO struct {
	Name       string `json:"name"`
	TTLSeconds int    `json:"ttl_seconds"`
	MaxSize    int    `json:"max_size"`
	Eviction   string `json:"eviction"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
}

type cacheStatsResponse struct {
	TrackedKeys int           `json:"tracked_keys"`
	HotKeys     []hotKeyDTO   `json:"hot_keys"`
	Strategies  []strategyDTO `json:"strategies"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

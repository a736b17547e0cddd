package domain

import "time"

// ScoredResult is a candidate enriched with its component and composite scores.
// Raw components are kept for explainability.
type ScoredResult struct {
	Candidate      Candidate
	VectorScore    float64
	TextScore      float64
	FreshnessScore float64
	AuthorityScore float64
	CompositeScore float64
}

// Facets are result-set counts along fixed dimensions.
type Facets struct {
	ByKind   map[string]int
	ByMonth  map[string]int // "2026-01"
	BySource map[string]int
}

// Suggestion origin labels.
const (
	SuggestionPopular    = "popular"
	SuggestionConcept    = "concept"
	SuggestionRefinement = "refinement"
)

// Suggestion is a related-query refinement.
type Suggestion struct {
	Text   string
	Origin string
}

// StageTimings records per-stage pipeline latency for one search.
type StageTimings struct {
	Embed    time.Duration
	Dispatch time.Duration
	Rank     time.Duration
	Total    time.Duration
}

// Result is the final outcome of one search invocation.
type Result struct {
	Results     []ScoredResult
	Facets      Facets
	Suggestions []Suggestion
	Count       int
	Timings     StageTimings
}

// CodeResult is a single code search hit.
type CodeResult struct {
	ID        string
	Content   string
	Language  string
	ProjectID string
	Score     float64
}

// AnalyticsRecord is the fire-and-forget search log entry.
type AnalyticsRecord struct {
	ID               string
	Query            string
	Scope            Scope
	ResultCount      int
	ProcessingTimeMs int64
	UserID           string
	ProjectID        string
	Timestamp        time.Time
}

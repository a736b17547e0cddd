package domain

import (
	"fmt"
	"time"
)

// Scope is the breadth of content a search covers.
type Scope string

// Search scopes.
const (
	ScopeGlobal       Scope = "global"
	ScopeProject      Scope = "project"
	ScopeConversation Scope = "conversation"
	ScopeDocuments    Scope = "documents"
)

// IsValid reports whether s is a known scope.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeProject, ScopeConversation, ScopeDocuments:
		return true
	}
	return false
}

// Well-known filter fields. Unknown fields are accepted and treated as
// always-true by the filter processor.
const (
	FilterContentType  = "contentType"
	FilterAuthor       = "author"
	FilterDateRange    = "dateRange"
	FilterConversation = "conversationId"
	FilterLanguage     = "language"
)

// Filter is a single post-ranking predicate. Value carries exact-match
// predicates; Start/End carry the dateRange bounds (inclusive).
type Filter struct {
	Field string
	Value string
	Start time.Time
	End   time.Time
}

// RankingConfig holds the composite-score weights. Weights are non-negative
// and need not sum to 1.
type RankingConfig struct {
	VectorWeight    float64
	TextWeight      float64
	FreshnessWeight float64
	AuthorityWeight float64
}

// DefaultRankingConfig returns the standard weight set.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		VectorWeight:    0.6,
		TextWeight:      0.3,
		FreshnessWeight: 0.1,
		AuthorityWeight: 0.0,
	}
}

// Validate rejects negative weights.
func (c RankingConfig) Validate() error {
	for name, w := range map[string]float64{
		"vectorWeight":    c.VectorWeight,
		"textWeight":      c.TextWeight,
		"freshnessWeight": c.FreshnessWeight,
		"authorityWeight": c.AuthorityWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, w)
		}
	}
	return nil
}

// Search parameter limits.
const (
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
	MaxSuggestions = 20
)

// Query is a validated, immutable search request.
type Query struct {
	text      string
	scope     Scope
	projectID string
	userID    string
	filters   []Filter
	ranking   RankingConfig
	limit     int
}

// NewQuery validates and normalizes search parameters.
// Defaults: scope=global, limit=20 (capped at 100).
// An unknown non-empty scope is a caller bug and fails with ErrUnknownScope.
func NewQuery(
	text string,
	scope Scope,
	projectID, userID string,
	filters []Filter,
	ranking RankingConfig,
	limit int,
) (Query, error) {
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: max %d chars", ErrQueryTooLong, MaxQueryLength)
	}
	if scope == "" {
		scope = ScopeGlobal
	}
	if !scope.IsValid() {
		return Query{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	for _, f := range filters {
		if f.Field == "" {
			return Query{}, fmt.Errorf("%w: filter field is required", ErrInvalidFilter)
		}
		if f.Field == FilterDateRange && !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
			return Query{}, fmt.Errorf("%w: dateRange end precedes start", ErrInvalidFilter)
		}
	}
	if err := ranking.Validate(); err != nil {
		return Query{}, fmt.Errorf("%w: %s", ErrInvalidFilter, err)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Query{
		text:      text,
		scope:     scope,
		projectID: projectID,
		userID:    userID,
		filters:   filters,
		ranking:   ranking,
		limit:     limit,
	}, nil
}

// Text returns the free-text query.
func (q *Query) Text() string { return q.text }

// Scope returns the search scope.
func (q *Query) Scope() Scope { return q.scope }

// ProjectID returns the project identifier, if scoped.
func (q *Query) ProjectID() string { return q.projectID }

// UserID returns the requesting user, where known.
func (q *Query) UserID() string { return q.userID }

// Filters returns the post-ranking predicates.
func (q *Query) Filters() []Filter { return q.filters }

// Ranking returns the composite-score weights.
func (q *Query) Ranking() RankingConfig { return q.ranking }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// FilterValue returns the value of the first filter with the given field.
func (q *Query) FilterValue(field string) (string, bool) {
	for _, f := range q.filters {
		if f.Field == field {
			return f.Value, true
		}
	}
	return "", false
}

package search

import (
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// applyFilters keeps results matching every filter. Predicates: contentType
// exact, author exact, language exact, dateRange inclusive against the
// candidate timestamp. Unknown fields are accepted and always match, so
// callers passing extra metadata never break.
func applyFilters(results []domain.ScoredResult, filters []domain.Filter) []domain.ScoredResult {
	if len(filters) == 0 {
		return results
	}

	out := results[:0]
	for _, r := range results {
		if matchesAll(r.Candidate, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(c domain.Candidate, filters []domain.Filter) bool {
	for _, f := range filters {
		if !matches(c, f) {
			return false
		}
	}
	return true
}

func matches(c domain.Candidate, f domain.Filter) bool {
	switch f.Field {
	case domain.FilterContentType:
		return string(c.Kind()) == f.Value
	case domain.FilterAuthor:
		return c.Author() == f.Value
	case domain.FilterLanguage:
		return c.Language() == f.Value
	case domain.FilterDateRange:
		ts := c.CreatedAt()
		if ts.IsZero() {
			return false
		}
		if !f.Start.IsZero() && ts.Before(f.Start) {
			return false
		}
		if !f.End.IsZero() && ts.After(f.End) {
			return false
		}
		return true
	default:
		return true
	}
}

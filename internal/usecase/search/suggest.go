package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// MaxRelatedSuggestions caps suggestions attached to a search result.
const MaxRelatedSuggestions = 5

// MinSuggestionQueryLen is the autocomplete threshold; shorter partial
// queries return empty without touching the backend.
const MinSuggestionQueryLen = 2

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "before": {},
	"does": {}, "from": {}, "have": {}, "into": {}, "like": {},
	"over": {}, "some": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "url": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

// suggest derives related queries for a finished search: popular historical
// queries sharing a keyword, concept names matching the query keywords, and
// two deterministic refinements. Capped at MaxRelatedSuggestions.
func (s *Service) suggest(ctx context.Context, queryText, projectID string) []domain.Suggestion {
	keywords := extractKeywords(queryText)
	seen := map[string]struct{}{strings.ToLower(queryText): {}}
	var out []domain.Suggestion

	add := func(text, origin string) {
		if len(out) >= MaxRelatedSuggestions {
			return
		}
		folded := strings.ToLower(text)
		if _, dup := seen[folded]; dup || text == "" {
			return
		}
		seen[folded] = struct{}{}
		out = append(out, domain.Suggestion{Text: text, Origin: origin})
	}

	for _, popular := range s.popularMatching(ctx, keywords) {
		add(popular, domain.SuggestionPopular)
	}
	for _, name := range s.conceptMatches(ctx, keywords, projectID) {
		add(name, domain.SuggestionConcept)
	}
	add(queryText+" in code", domain.SuggestionRefinement)
	add(queryText+" in documents", domain.SuggestionRefinement)

	return out
}

// GetSuggestions serves autocomplete: popular queries and concept names
// matching the partial input. Input under two characters returns empty
// without any backend call.
func (s *Service) GetSuggestions(
	ctx context.Context, partial, projectID string, limit int,
) ([]domain.Suggestion, error) {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < MinSuggestionQueryLen {
		return nil, nil
	}
	if limit <= 0 || limit > domain.MaxSuggestions {
		limit = domain.MaxSuggestions
	}

	folded := strings.ToLower(partial)
	seen := make(map[string]struct{})
	var out []domain.Suggestion

	add := func(text, origin string) {
		if len(out) >= limit {
			return
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup || text == "" {
			return
		}
		seen[key] = struct{}{}
		out = append(out, domain.Suggestion{Text: text, Origin: origin})
	}

	var popular []string
	if s.qlog != nil {
		var err error
		popular, err = s.qlog.Popular(ctx, domain.MaxSuggestions)
		if err != nil {
			s.logger.Warn("Failed to read popular queries for autocomplete", zap.Error(err))
		}
	}
	for _, p := range popular {
		if strings.Contains(strings.ToLower(p), folded) {
			add(p, domain.SuggestionPopular)
		}
	}

	for _, name := range s.conceptMatches(ctx, []string{partial}, projectID) {
		add(name, domain.SuggestionConcept)
	}

	return out, nil
}

// popularMatching returns popular queries sharing at least one keyword with
// the current query. Unrelated popular noise is not a suggestion.
func (s *Service) popularMatching(ctx context.Context, keywords []string) []string {
	if len(keywords) == 0 || s.qlog == nil {
		return nil
	}

	popular, err := s.qlog.Popular(ctx, domain.MaxSuggestions)
	if err != nil {
		s.logger.Warn("Failed to read popular queries", zap.Error(err))
		return nil
	}

	var out []string
	for _, p := range popular {
		folded := strings.ToLower(p)
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// conceptMatches searches the concept index by keyword and returns matching
// concept titles.
func (s *Service) conceptMatches(ctx context.Context, keywords []string, projectID string) []string {
	if len(keywords) == 0 {
		return nil
	}
	concepts := s.adaptersFor(domain.KindConcept)
	if len(concepts) == 0 {
		return nil
	}

	var tags map[string]string
	if projectID != "" {
		tags = map[string]string{tagProject: projectID}
	}

	hits, err := concepts[0].SearchText(ctx, strings.Join(keywords, " "), tags, MaxRelatedSuggestions)
	if err != nil {
		s.logger.Warn("Failed to match concepts for suggestions", zap.Error(err))
		return nil
	}

	out := make([]string, 0, len(hits))
	for _, c := range hits {
		if title := c.Title(); title != "" {
			out = append(out, title)
		}
	}
	return out
}

// extractKeywords tokenizes a query into lowercase terms longer than three
// characters with stop-words removed.
func extractKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'.,;:!?()[]`)
		if len(f) <= 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// buildFacets counts results by kind, creation month and source.
func buildFacets(results []domain.ScoredResult) domain.Facets {
	f := domain.Facets{
		ByKind:   make(map[string]int),
		ByMonth:  make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, r := range results {
		f.ByKind[string(r.Candidate.Kind())]++
		if ts := r.Candidate.CreatedAt(); !ts.IsZero() {
			f.ByMonth[ts.Format("2006-01")]++
		}
		if src := r.Candidate.Source(); src != "" {
			f.BySource[src]++
		}
	}
	return f
}

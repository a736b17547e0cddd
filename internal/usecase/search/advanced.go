package search

import (
	"strings"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// parsedQuery is the structured form of an advanced query string.
type parsedQuery struct {
	terms    []string
	phrases  []string
	fields   []domain.Filter
	excluded []string
	anyTerm  bool // OR seen between terms; default is all-terms (AND)
}

// searchText joins terms and phrases back into the free-text query handed
// to the search pipeline. Phrases stay quoted so the text backend can match
// them exactly. Space-separated terms intersect in FT.SEARCH; under OR the
// parts are joined with | so the backend takes their union instead.
func (p parsedQuery) searchText() string {
	parts := make([]string, 0, len(p.terms)+len(p.phrases))
	parts = append(parts, p.terms...)
	for _, ph := range p.phrases {
		parts = append(parts, `"`+ph+`"`)
	}
	if p.anyTerm {
		return strings.Join(parts, "|")
	}
	return strings.Join(parts, " ")
}

// Field aliases accepted in field:value expressions.
var fieldAliases = map[string]string{
	"author":       domain.FilterAuthor,
	"type":         domain.FilterContentType,
	"contenttype":  domain.FilterContentType,
	"lang":         domain.FilterLanguage,
	"language":     domain.FilterLanguage,
	"conversation": domain.FilterConversation,
}

// parseAdvancedQuery tokenizes an advanced query: exact phrases in double
// quotes, field:value pairs, -term exclusions, and AND/OR connectives.
// AND is the default combination; any OR switches to any-term matching.
func parseAdvancedQuery(raw string) parsedQuery {
	var p parsedQuery

	for _, tok := range tokenize(raw) {
		switch {
		case tok == "AND":
			// default, nothing to record
		case tok == "OR":
			p.anyTerm = true
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			p.excluded = append(p.excluded, strings.ToLower(unquote(tok[1:])))
		case isFieldExpr(tok):
			name, value, _ := strings.Cut(tok, ":")
			field := strings.ToLower(name)
			if canonical, ok := fieldAliases[field]; ok {
				field = canonical
			}
			p.fields = append(p.fields, domain.Filter{Field: field, Value: unquote(value)})
		case strings.HasPrefix(tok, `"`):
			if phrase := unquote(tok); phrase != "" {
				p.phrases = append(p.phrases, phrase)
			}
		default:
			p.terms = append(p.terms, tok)
		}
	}

	return p
}

// tokenize splits on whitespace but keeps double-quoted spans (optionally
// prefixed with - or field:) as single tokens.
func tokenize(raw string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// isFieldExpr reports whether a token is a field:value expression. The
// field part must be a bare word, so URLs ("http://...") stay plain terms.
func isFieldExpr(tok string) bool {
	name, value, found := strings.Cut(tok, ":")
	if !found || name == "" || value == "" {
		return false
	}
	if strings.HasPrefix(value, "//") {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}

// applyExclusions drops results whose content or title contains any
// excluded term, case-insensitively.
func applyExclusions(results []domain.ScoredResult, excluded []string) []domain.ScoredResult {
	if len(excluded) == 0 {
		return results
	}

	out := results[:0]
	for _, r := range results {
		haystack := strings.ToLower(r.Candidate.Content() + " " + r.Candidate.Title())
		keep := true
		for _, term := range excluded {
			if term != "" && strings.Contains(haystack, term) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

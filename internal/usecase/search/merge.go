package search

import "github.com/josephsamijona/gitchatai-sub000/internal/domain"

// merge flattens candidate lists and deduplicates on (kind, id). The first
// occurrence wins; a later duplicate only contributes a score signal the
// kept candidate does not carry yet, so a document found by both the vector
// and the text pass ranks on both signals.
func merge(lists [][]domain.Candidate) []domain.Candidate {
	var out []domain.Candidate
	index := make(map[string]int)

	for _, list := range lists {
		for _, c := range list {
			key := c.DedupKey()
			at, seen := index[key]
			if !seen {
				index[key] = len(out)
				out = append(out, c)
				continue
			}

			kept := out[at]
			if _, has := kept.VectorDistance(); !has {
				if d, ok := c.VectorDistance(); ok {
					out[at] = kept.WithVectorDistance(d)
					kept = out[at]
				}
			}
			if _, has := kept.LexicalRelevance(); !has {
				if r, ok := c.LexicalRelevance(); ok {
					out[at] = kept.WithLexicalRelevance(r)
				}
			}
		}
	}

	return out
}

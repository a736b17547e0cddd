package search

import (
	"sort"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// Authority is a placeholder signal until real authority data (link counts,
// citation depth) exists. Concepts outrank documents outrank messages when
// the weight is non-zero.
var authorityByKind = map[domain.Kind]float64{
	domain.KindConcept:  0.6,
	domain.KindDocument: 0.5,
	domain.KindMessage:  0.4,
}

// rank computes component and composite scores and sorts the candidates.
// Pure: no I/O, no hidden state; identical input yields identical order.
func rank(
	candidates []domain.Candidate,
	cfg domain.RankingConfig,
	now time.Time,
	freshnessWindow time.Duration,
) []domain.ScoredResult {
	out := make([]domain.ScoredResult, 0, len(candidates))

	for _, c := range candidates {
		vector := vectorScore(c)
		text := textScore(c)
		freshness := freshnessScore(c.CreatedAt(), now, freshnessWindow)
		authority := authorityByKind[c.Kind()]

		out = append(out, domain.ScoredResult{
			Candidate:      c,
			VectorScore:    vector,
			TextScore:      text,
			FreshnessScore: freshness,
			AuthorityScore: authority,
			CompositeScore: vector*cfg.VectorWeight +
				text*cfg.TextWeight +
				freshness*cfg.FreshnessWeight +
				authority*cfg.AuthorityWeight,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		return out[i].Candidate.ID() < out[j].Candidate.ID()
	})

	return out
}

// vectorScore maps cosine distance (0 = identical) to similarity. A missing
// signal contributes 0 rather than excluding the candidate.
func vectorScore(c domain.Candidate) float64 {
	d, ok := c.VectorDistance()
	if !ok {
		return 0
	}
	s := 1 - d
	if s < 0 {
		return 0
	}
	return s
}

// textScore normalizes the backend's unbounded relevance into roughly [0,1].
func textScore(c domain.Candidate) float64 {
	r, ok := c.LexicalRelevance()
	if !ok || r < 0 {
		return 0
	}
	return r / 100
}

// freshnessScore decays linearly from 1 (now) to 0 at the window edge.
// Zero timestamps score 0, future timestamps score 1.
func freshnessScore(createdAt, now time.Time, window time.Duration) float64 {
	if createdAt.IsZero() || window <= 0 {
		return 0
	}
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1
	}
	if age >= window {
		return 0
	}
	return 1 - float64(age)/float64(window)
}

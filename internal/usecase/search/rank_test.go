package search

import (
	"math"
	"testing"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

const scoreTolerance = 1e-9

func TestRankCompositeScenario(t *testing.T) {
	// One document, vectorDistance=0.1, lexicalRelevance=50, age=2 days,
	// default weights {0.6, 0.3, 0.1, 0.0}.
	window := 30 * 24 * time.Hour
	c := docCandidate("d1", 48*time.Hour).
		WithVectorDistance(0.1).
		WithLexicalRelevance(50)

	got := rank([]domain.Candidate{c}, domain.DefaultRankingConfig(), fixedNow, window)
	if len(got) != 1 {
		t.Fatalf("got %d results", len(got))
	}

	r := got[0]
	if math.Abs(r.VectorScore-0.9) > scoreTolerance {
		t.Errorf("vectorScore = %v, want 0.9", r.VectorScore)
	}
	if math.Abs(r.TextScore-0.5) > scoreTolerance {
		t.Errorf("textScore = %v, want 0.5", r.TextScore)
	}
	wantFresh := 1 - float64(48*time.Hour)/float64(window) // ~0.9333
	if math.Abs(r.FreshnessScore-wantFresh) > scoreTolerance {
		t.Errorf("freshnessScore = %v, want %v", r.FreshnessScore, wantFresh)
	}

	want := 0.9*0.6 + 0.5*0.3 + wantFresh*0.1
	if math.Abs(r.CompositeScore-want) > scoreTolerance {
		t.Errorf("compositeScore = %v, want %v (~0.8433)", r.CompositeScore, want)
	}
	if math.Abs(want-0.8433) > 0.001 {
		t.Errorf("scenario drifted: weighted sum = %v, expected ~0.8433", want)
	}
}

func TestRankMissingSignalsContributeZero(t *testing.T) {
	// No lexical match, no timestamp: ranks on vector similarity alone.
	c := domain.NewDocument("d1", domain.CandidateFields{Content: "x"}).
		WithVectorDistance(0.2)

	got := rank([]domain.Candidate{c}, domain.DefaultRankingConfig(), fixedNow, 30*24*time.Hour)
	r := got[0]

	if r.TextScore != 0 || r.FreshnessScore != 0 {
		t.Errorf("missing signals = (%v, %v), want zeros", r.TextScore, r.FreshnessScore)
	}
	want := 0.8 * 0.6
	if math.Abs(r.CompositeScore-want) > scoreTolerance {
		t.Errorf("compositeScore = %v, want %v", r.CompositeScore, want)
	}
}

func TestRankOrderAndTieBreak(t *testing.T) {
	window := 30 * 24 * time.Hour
	// b and a score identically; c scores higher.
	a := docCandidate("a", time.Hour).WithVectorDistance(0.5)
	b := docCandidate("b", time.Hour).WithVectorDistance(0.5)
	c := docCandidate("c", time.Hour).WithVectorDistance(0.1)

	got := rank([]domain.Candidate{b, c, a}, domain.DefaultRankingConfig(), fixedNow, window)

	ids := []string{got[0].Candidate.ID(), got[1].Candidate.ID(), got[2].Candidate.ID()}
	if ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("order = %v, want [c a b] (ties break by id ascending)", ids)
	}
}

func TestRankIdempotent(t *testing.T) {
	window := 30 * 24 * time.Hour
	in := []domain.Candidate{
		docCandidate("a", time.Hour).WithVectorDistance(0.3).WithLexicalRelevance(10),
		msgCandidate("b", 48*time.Hour).WithLexicalRelevance(90),
		conceptCandidate("c", "Consensus").WithVectorDistance(0.05),
	}
	cfg := domain.RankingConfig{VectorWeight: 0.4, TextWeight: 0.4, FreshnessWeight: 0.15, AuthorityWeight: 0.05}

	first := rank(in, cfg, fixedNow, window)
	second := rank(in, cfg, fixedNow, window)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Candidate.DedupKey() != second[i].Candidate.DedupKey() {
			t.Errorf("position %d differs: %s vs %s",
				i, first[i].Candidate.DedupKey(), second[i].Candidate.DedupKey())
		}
		if first[i].CompositeScore != second[i].CompositeScore {
			t.Errorf("score at %d differs: %v vs %v",
				i, first[i].CompositeScore, second[i].CompositeScore)
		}
	}
}

func TestFreshnessEdges(t *testing.T) {
	window := 30 * 24 * time.Hour

	cases := []struct {
		name      string
		createdAt time.Time
		want      float64
	}{
		{"zero timestamp", time.Time{}, 0},
		{"brand new", fixedNow, 1},
		{"future", fixedNow.Add(time.Hour), 1},
		{"at window edge", fixedNow.Add(-window), 0},
		{"beyond window", fixedNow.Add(-2 * window), 0},
		{"mid window", fixedNow.Add(-window / 2), 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := freshnessScore(tc.createdAt, fixedNow, window)
			if math.Abs(got-tc.want) > scoreTolerance {
				t.Errorf("freshnessScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVectorScoreClampsAtZero(t *testing.T) {
	// Cosine distance above 1 (opposed vectors) must not go negative.
	c := docCandidate("d", time.Hour).WithVectorDistance(1.7)
	if got := vectorScore(c); got != 0 {
		t.Errorf("vectorScore = %v, want 0", got)
	}
}

package search

import (
	"testing"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

func scoredSet(candidates ...domain.Candidate) []domain.ScoredResult {
	out := make([]domain.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoredResult{Candidate: c})
	}
	return out
}

func TestFilterContentType(t *testing.T) {
	results := scoredSet(
		msgCandidate("m1", time.Hour),
		docCandidate("d1", time.Hour),
		conceptCandidate("c1", "Raft"),
	)

	got := applyFilters(results, []domain.Filter{
		{Field: domain.FilterContentType, Value: "document"},
	})
	if len(got) != 1 || got[0].Candidate.Kind() != domain.KindDocument {
		t.Errorf("got %d results, want only the document", len(got))
	}
}

func TestFilterAuthor(t *testing.T) {
	alice := domain.NewMessage("m1", domain.CandidateFields{Author: "alice", CreatedAt: fixedNow})
	bob := domain.NewMessage("m2", domain.CandidateFields{Author: "bob", CreatedAt: fixedNow})

	got := applyFilters(scoredSet(alice, bob), []domain.Filter{
		{Field: domain.FilterAuthor, Value: "alice"},
	})
	if len(got) != 1 || got[0].Candidate.ID() != "m1" {
		t.Errorf("author filter kept %d results", len(got))
	}
}

func TestFilterDateRangeInclusive(t *testing.T) {
	start := fixedNow.Add(-72 * time.Hour)
	end := fixedNow.Add(-24 * time.Hour)

	onStart := docCandidate("on-start", 72*time.Hour)
	inside := docCandidate("inside", 48*time.Hour)
	onEnd := docCandidate("on-end", 24*time.Hour)
	before := docCandidate("before", 100*time.Hour)
	after := docCandidate("after", time.Hour)
	noTimestamp := domain.NewDocument("no-ts", domain.CandidateFields{})

	got := applyFilters(
		scoredSet(onStart, inside, onEnd, before, after, noTimestamp),
		[]domain.Filter{{Field: domain.FilterDateRange, Start: start, End: end}},
	)

	if len(got) != 3 {
		t.Fatalf("got %d results, want 3 (bounds are inclusive)", len(got))
	}
	for _, r := range got {
		ts := r.Candidate.CreatedAt()
		if ts.Before(start) || ts.After(end) {
			t.Errorf("result %q timestamp %v escapes [%v, %v]", r.Candidate.ID(), ts, start, end)
		}
	}
}

func TestFiltersAreANDed(t *testing.T) {
	match := domain.NewDocument("d1", domain.CandidateFields{Author: "alice", CreatedAt: fixedNow.Add(-time.Hour)})
	wrongAuthor := domain.NewDocument("d2", domain.CandidateFields{Author: "bob", CreatedAt: fixedNow.Add(-time.Hour)})
	wrongKind := domain.NewMessage("m1", domain.CandidateFields{Author: "alice", CreatedAt: fixedNow.Add(-time.Hour)})

	got := applyFilters(scoredSet(match, wrongAuthor, wrongKind), []domain.Filter{
		{Field: domain.FilterContentType, Value: "document"},
		{Field: domain.FilterAuthor, Value: "alice"},
	})
	if len(got) != 1 || got[0].Candidate.ID() != "d1" {
		t.Errorf("ANDed filters kept %d results", len(got))
	}
}

func TestUnknownFilterFieldAlwaysMatches(t *testing.T) {
	results := scoredSet(msgCandidate("m1", time.Hour), docCandidate("d1", time.Hour))

	got := applyFilters(results, []domain.Filter{
		{Field: "sentiment", Value: "positive"},
	})
	if len(got) != 2 {
		t.Errorf("unknown filter field dropped results: got %d, want 2", len(got))
	}
}

func TestNoFiltersIsIdentity(t *testing.T) {
	results := scoredSet(msgCandidate("m1", time.Hour))
	got := applyFilters(results, nil)
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

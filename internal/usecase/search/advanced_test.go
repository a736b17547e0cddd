package search

import (
	"testing"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

func TestParseAdvancedQuery(t *testing.T) {
	p := parseAdvancedQuery(`"vector clocks" author:alice -legacy distributed AND systems`)

	if len(p.phrases) != 1 || p.phrases[0] != "vector clocks" {
		t.Errorf("phrases = %v", p.phrases)
	}
	if len(p.fields) != 1 || p.fields[0].Field != domain.FilterAuthor || p.fields[0].Value != "alice" {
		t.Errorf("fields = %+v", p.fields)
	}
	if len(p.excluded) != 1 || p.excluded[0] != "legacy" {
		t.Errorf("excluded = %v", p.excluded)
	}
	if len(p.terms) != 2 || p.terms[0] != "distributed" || p.terms[1] != "systems" {
		t.Errorf("terms = %v", p.terms)
	}
	if p.anyTerm {
		t.Error("AND query must not set anyTerm")
	}
}

func TestParseAdvancedQueryOr(t *testing.T) {
	p := parseAdvancedQuery("raft OR paxos")
	if !p.anyTerm {
		t.Error("OR must set anyTerm")
	}
	if len(p.terms) != 2 {
		t.Errorf("terms = %v", p.terms)
	}
	// The backend query must take the union, not the intersection.
	if got := p.searchText(); got != "raft|paxos" {
		t.Errorf("searchText = %q, want raft|paxos", got)
	}
}

func TestSearchTextOrWithPhrase(t *testing.T) {
	p := parseAdvancedQuery(`raft OR "log replication"`)
	if got := p.searchText(); got != `raft|"log replication"` {
		t.Errorf("searchText = %q", got)
	}
}

func TestParseAdvancedQueryFieldAliases(t *testing.T) {
	p := parseAdvancedQuery("type:document lang:go conversation:c1 priority:high")

	want := map[string]string{
		domain.FilterContentType:  "document",
		domain.FilterLanguage:     "go",
		domain.FilterConversation: "c1",
		"priority":                "high", // unknown field passes through
	}
	if len(p.fields) != len(want) {
		t.Fatalf("fields = %+v", p.fields)
	}
	for _, f := range p.fields {
		if want[f.Field] != f.Value {
			t.Errorf("field %q = %q, want %q", f.Field, f.Value, want[f.Field])
		}
	}
}

func TestParseAdvancedQueryQuotedFieldValue(t *testing.T) {
	p := parseAdvancedQuery(`author:"Grace Hopper" compilers`)

	if len(p.fields) != 1 || p.fields[0].Value != "Grace Hopper" {
		t.Errorf("fields = %+v", p.fields)
	}
	if len(p.terms) != 1 || p.terms[0] != "compilers" {
		t.Errorf("terms = %v", p.terms)
	}
}

func TestParseAdvancedQueryURLIsATerm(t *testing.T) {
	p := parseAdvancedQuery("https://example.com/doc failure")
	if len(p.fields) != 0 {
		t.Errorf("a URL must not parse as a field expression: %+v", p.fields)
	}
	if len(p.terms) != 2 {
		t.Errorf("terms = %v", p.terms)
	}
}

func TestSearchTextKeepsPhrasesQuoted(t *testing.T) {
	p := parseAdvancedQuery(`alpha "beta gamma"`)
	if got := p.searchText(); got != `alpha "beta gamma"` {
		t.Errorf("searchText = %q", got)
	}
}

func TestParseAdvancedQueryExcludedPhrase(t *testing.T) {
	p := parseAdvancedQuery(`search -"dead code"`)
	if len(p.excluded) != 1 || p.excluded[0] != "dead code" {
		t.Errorf("excluded = %v", p.excluded)
	}
}

func TestApplyExclusions(t *testing.T) {
	results := scoredSet(
		domain.NewDocument("d1", domain.CandidateFields{Content: "modern architecture"}),
		domain.NewDocument("d2", domain.CandidateFields{Content: "Legacy subsystem notes"}),
		domain.NewDocument("d3", domain.CandidateFields{Title: "LEGACY migration"}),
	)

	got := applyExclusions(results, []string{"legacy"})
	if len(got) != 1 || got[0].Candidate.ID() != "d1" {
		t.Errorf("got %d results, want only d1 (exclusion is case-insensitive over content and title)", len(got))
	}
}

func TestApplyExclusionsEmptyIsIdentity(t *testing.T) {
	results := scoredSet(docCandidate("d1", time.Hour))
	if got := applyExclusions(results, nil); len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

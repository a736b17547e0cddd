// Package sources adapts the search indexes for chat messages, project
// documents and concept-graph nodes to domain candidates. Each source owns
// one index and emits exactly one candidate kind.
package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Indexed hash fields shared by all sources.
const (
	fieldContent   = "content"
	fieldTitle     = "title"
	fieldCreatedAt = "created_at"
	fieldAuthor    = "author"
	fieldProject   = "project_id"
	fieldSource    = "source"
	fieldLanguage  = "language"
)

var returnFields = []string{
	fieldContent, fieldTitle, fieldCreatedAt, fieldAuthor,
	fieldProject, fieldSource, fieldLanguage,
}

// Source searches one content index and converts hits to candidates.
type Source struct {
	store     store
	kind      domain.Kind
	indexName string
	keyPrefix string
	construct func(id string, f domain.CandidateFields) domain.Candidate
}

// NewMessages creates the chat message source over "<prefix>idx:messages".
func NewMessages(s store, keyPrefix string) *Source {
	return newSource(s, domain.KindMessage, keyPrefix, "messages", domain.NewMessage)
}

// NewDocuments creates the project document source over "<prefix>idx:documents".
func NewDocuments(s store, keyPrefix string) *Source {
	return newSource(s, domain.KindDocument, keyPrefix, "documents", domain.NewDocument)
}

// NewConcepts creates the concept-graph source over "<prefix>idx:concepts".
func NewConcepts(s store, keyPrefix string) *Source {
	return newSource(s, domain.KindConcept, keyPrefix, "concepts", domain.NewConcept)
}

func newSource(
	s store, kind domain.Kind, keyPrefix, name string,
	construct func(string, domain.CandidateFields) domain.Candidate,
) *Source {
	return &Source{
		store:     s,
		kind:      kind,
		indexName: keyPrefix + "idx:" + name,
		keyPrefix: keyPrefix + name + ":",
		construct: construct,
	}
}

// Kind returns the candidate kind this source emits.
func (s *Source) Kind() domain.Kind { return s.kind }

// SearchVector runs a KNN similarity search. The returned candidates carry
// the raw cosine distance.
func (s *Source) SearchVector(
	ctx context.Context, vector []float32, tags map[string]string, k int,
) ([]domain.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    s.indexName,
		Vector:       vector,
		Tags:         tags,
		K:            k,
		ReturnFields: returnFields,
	}

	sr, err := s.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", s.indexName, err)
	}

	return s.parse(sr, func(c domain.Candidate, score float64) domain.Candidate {
		return c.WithVectorDistance(score)
	}), nil
}

// SearchText runs a BM25 keyword search. The returned candidates carry the
// raw lexical relevance score.
func (s *Source) SearchText(
	ctx context.Context, query string, tags map[string]string, k int,
) ([]domain.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    s.indexName,
		Query:        query,
		Tags:         tags,
		TopK:         k,
		ReturnFields: returnFields,
	}

	sr, err := s.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25 %s: %w", s.indexName, err)
	}

	return s.parse(sr, func(c domain.Candidate, score float64) domain.Candidate {
		return c.WithLexicalRelevance(score)
	}), nil
}

func (s *Source) parse(
	sr *db.SearchResult, attach func(domain.Candidate, float64) domain.Candidate,
) []domain.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, s.keyPrefix)
		c := s.construct(id, parseFields(entry.Fields))
		out = append(out, attach(c, entry.Score))
	}
	return out
}

func parseFields(fields map[string]string) domain.CandidateFields {
	f := domain.CandidateFields{
		Content:   fields[fieldContent],
		Title:     fields[fieldTitle],
		Author:    fields[fieldAuthor],
		ProjectID: fields[fieldProject],
		Source:    fields[fieldSource],
		Language:  fields[fieldLanguage],
	}
	if raw := fields[fieldCreatedAt]; raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.CreatedAt = time.Unix(unix, 0).UTC()
		}
	}
	return f
}

package domain

import "time"

// Kind discriminates the content variants a Candidate can carry.
type Kind string

// Content kinds.
const (
	KindMessage  Kind = "message"
	KindDocument Kind = "document"
	KindConcept  Kind = "concept"
)

// IsValid reports whether k is a known content kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindMessage, KindDocument, KindConcept:
		return true
	}
	return false
}

// CandidateFields holds the optional payload of a candidate.
type CandidateFields struct {
	Content   string
	Title     string
	CreatedAt time.Time
	Author    string
	ProjectID string
	Source    string
	Language  string
}

// Candidate is a raw search hit from one source adapter. It is immutable:
// relevance signals are attached via With* copies, never in place.
type Candidate struct {
	kind   Kind
	id     string
	fields CandidateFields

	vectorDistance      float64
	hasVectorDistance   bool
	lexicalRelevance    float64
	hasLexicalRelevance bool
}

// NewMessage creates a chat-message candidate.
func NewMessage(id string, f CandidateFields) Candidate {
	return Candidate{kind: KindMessage, id: id, fields: f}
}

// NewDocument creates a document candidate.
func NewDocument(id string, f CandidateFields) Candidate {
	return Candidate{kind: KindDocument, id: id, fields: f}
}

// NewConcept creates a concept-graph candidate.
func NewConcept(id string, f CandidateFields) Candidate {
	return Candidate{kind: KindConcept, id: id, fields: f}
}

// WithVectorDistance returns a copy carrying a cosine distance (0 = identical).
func (c Candidate) WithVectorDistance(d float64) Candidate {
	c.vectorDistance = d
	c.hasVectorDistance = true
	return c
}

// WithLexicalRelevance returns a copy carrying a full-text relevance score.
func (c Candidate) WithLexicalRelevance(r float64) Candidate {
	c.lexicalRelevance = r
	c.hasLexicalRelevance = true
	return c
}

// Kind returns the content kind.
func (c Candidate) Kind() Kind { return c.kind }

// ID returns the stable content identifier within its kind.
func (c Candidate) ID() string { return c.id }

// Content returns the raw content text.
func (c Candidate) Content() string { return c.fields.Content }

// Title returns the display title (document title or concept name).
func (c Candidate) Title() string { return c.fields.Title }

// CreatedAt returns the content timestamp. Zero means unknown.
func (c Candidate) CreatedAt() time.Time { return c.fields.CreatedAt }

// Author returns the content author, where available.
func (c Candidate) Author() string { return c.fields.Author }

// ProjectID returns the owning project, where available.
func (c Candidate) ProjectID() string { return c.fields.ProjectID }

// Source returns the originating source label (e.g. "chat", "upload", "code").
func (c Candidate) Source() string { return c.fields.Source }

// Language returns the programming language for code content.
func (c Candidate) Language() string { return c.fields.Language }

// VectorDistance returns the cosine distance and whether it is present.
func (c Candidate) VectorDistance() (float64, bool) {
	return c.vectorDistance, c.hasVectorDistance
}

// LexicalRelevance returns the text relevance and whether it is present.
func (c Candidate) LexicalRelevance() (float64, bool) {
	return c.lexicalRelevance, c.hasLexicalRelevance
}

// DedupKey identifies a candidate across sources: duplicates share (kind, id).
func (c Candidate) DedupKey() string {
	return string(c.kind) + ":" + c.id
}

package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// Cached-result wire form. Candidates carry unexported fields, so caching a
// search result goes through these DTOs.

type candidateDTO struct {
	Kind             string   `json:"kind"`
	ID               string   `json:"id"`
	Content          string   `json:"content,omitempty"`
	Title            string   `json:"title,omitempty"`
	CreatedAt        int64    `json:"createdAt,omitempty"`
	Author           string   `json:"author,omitempty"`
	ProjectID        string   `json:"projectId,omitempty"`
	Source           string   `json:"source,omitempty"`
	Language         string   `json:"language,omitempty"`
	VectorDistance   *float64 `json:"vectorDistance,omitempty"`
	LexicalRelevance *float64 `json:"lexicalRelevance,omitempty"`
}

type scoredDTO struct {
	Candidate      candidateDTO `json:"candidate"`
	VectorScore    float64      `json:"vectorScore"`
	TextScore      float64      `json:"textScore"`
	FreshnessScore float64      `json:"freshnessScore"`
	AuthorityScore float64      `json:"authorityScore"`
	CompositeScore float64      `json:"compositeScore"`
}

type resultDTO struct {
	Results     []scoredDTO         `json:"results"`
	Facets      domain.Facets       `json:"facets"`
	Suggestions []domain.Suggestion `json:"suggestions,omitempty"`
	Count       int                 `json:"count"`
	Timings     timingsDTO          `json:"timings"`
}

type timingsDTO struct {
	EmbedNs    int64 `json:"embedNs"`
	DispatchNs int64 `json:"dispatchNs"`
	RankNs     int64 `json:"rankNs"`
	TotalNs    int64 `json:"totalNs"`
}

func encodeResult(r *domain.Result) ([]byte, error) {
	dto := resultDTO{
		Results:     make([]scoredDTO, 0, len(r.Results)),
		Facets:      r.Facets,
		Suggestions: r.Suggestions,
		Count:       r.Count,
		Timings: timingsDTO{
			EmbedNs:    r.Timings.Embed.Nanoseconds(),
			DispatchNs: r.Timings.Dispatch.Nanoseconds(),
			RankNs:     r.Timings.Rank.Nanoseconds(),
			TotalNs:    r.Timings.Total.Nanoseconds(),
		},
	}

	for _, sr := range r.Results {
		dto.Results = append(dto.Results, scoredDTO{
			Candidate:      candidateToDTO(sr.Candidate),
			VectorScore:    sr.VectorScore,
			TextScore:      sr.TextScore,
			FreshnessScore: sr.FreshnessScore,
			AuthorityScore: sr.AuthorityScore,
			CompositeScore: sr.CompositeScore,
		})
	}

	return json.Marshal(dto)
}

func decodeResult(data []byte) (*domain.Result, error) {
	var dto resultDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("decode cached search result: %w", err)
	}

	out := &domain.Result{
		Results:     make([]domain.ScoredResult, 0, len(dto.Results)),
		Facets:      dto.Facets,
		Suggestions: dto.Suggestions,
		Count:       dto.Count,
		Timings: domain.StageTimings{
			Embed:    time.Duration(dto.Timings.EmbedNs),
			Dispatch: time.Duration(dto.Timings.DispatchNs),
			Rank:     time.Duration(dto.Timings.RankNs),
			Total:    time.Duration(dto.Timings.TotalNs),
		},
	}

	for _, sr := range dto.Results {
		c, err := candidateFromDTO(sr.Candidate)
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, domain.ScoredResult{
			Candidate:      c,
			VectorScore:    sr.VectorScore,
			TextScore:      sr.TextScore,
			FreshnessScore: sr.FreshnessScore,
			AuthorityScore: sr.AuthorityScore,
			CompositeScore: sr.CompositeScore,
		})
	}

	return out, nil
}

func candidateToDTO(c domain.Candidate) candidateDTO {
	dto := candidateDTO{
		Kind:      string(c.Kind()),
		ID:        c.ID(),
		Content:   c.Content(),
		Title:     c.Title(),
		Author:    c.Author(),
		ProjectID: c.ProjectID(),
		Source:    c.Source(),
		Language:  c.Language(),
	}
	if ts := c.CreatedAt(); !ts.IsZero() {
		dto.CreatedAt = ts.Unix()
	}
	if d, ok := c.VectorDistance(); ok {
		dto.VectorDistance = &d
	}
	if r, ok := c.LexicalRelevance(); ok {
		dto.LexicalRelevance = &r
	}
	return dto
}

func candidateFromDTO(dto candidateDTO) (domain.Candidate, error) {
	fields := domain.CandidateFields{
		Content:   dto.Content,
		Title:     dto.Title,
		Author:    dto.Author,
		ProjectID: dto.ProjectID,
		Source:    dto.Source,
		Language:  dto.Language,
	}
	if dto.CreatedAt != 0 {
		fields.CreatedAt = time.Unix(dto.CreatedAt, 0).UTC()
	}

	var c domain.Candidate
	switch domain.Kind(dto.Kind) {
	case domain.KindMessage:
		c = domain.NewMessage(dto.ID, fields)
	case domain.KindDocument:
		c = domain.NewDocument(dto.ID, fields)
	case domain.KindConcept:
		c = domain.NewConcept(dto.ID, fields)
	default:
		return domain.Candidate{}, fmt.Errorf("unknown cached candidate kind %q", dto.Kind)
	}

	if dto.VectorDistance != nil {
		c = c.WithVectorDistance(*dto.VectorDistance)
	}
	if dto.LexicalRelevance != nil {
		c = c.WithLexicalRelevance(*dto.LexicalRelevance)
	}
	return c, nil
}

package search

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
	"github.com/josephsamijona/gitchatai-sub000/internal/metrics"
)

// Index tag fields used for scope pre-filtering.
const (
	tagProject      = "project_id"
	tagConversation = "conversation_id"
	tagLanguage     = "language"
)

// dispatch fans the query out to the adapters its scope selects and runs
// vector and text search concurrently on each. A failing call degrades to an
// empty list for that source; siblings are never aborted.
func (s *Service) dispatch(
	ctx context.Context, q *domain.Query, embedding []float32,
) [][]domain.Candidate {
	adapters, tags, ok := s.route(q)
	if !ok {
		return nil
	}

	// One slot per (adapter, mode) pair keeps collection order deterministic
	// regardless of completion order.
	lists := make([][]domain.Candidate, len(adapters)*2)

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		i, adapter := i, adapter

		if len(embedding) > 0 {
			g.Go(func() error {
				got, err := adapter.SearchVector(gctx, embedding, tags, q.Limit())
				if err != nil {
					s.absorbSourceError(adapter.Kind(), "vector", err)
					return nil
				}
				lists[i*2] = got
				return nil
			})
		}

		g.Go(func() error {
			got, err := adapter.SearchText(gctx, q.Text(), tags, q.Limit())
			if err != nil {
				s.absorbSourceError(adapter.Kind(), "text", err)
				return nil
			}
			lists[i*2+1] = got
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	return lists
}

// route selects the adapters and scope pre-filter tags for a query. The
// third return is false when the scope yields an empty result by contract
// (conversation scope without a conversationId filter).
func (s *Service) route(q *domain.Query) ([]SourceAdapter, map[string]string, bool) {
	switch q.Scope() {
	case domain.ScopeConversation:
		convID, ok := q.FilterValue(domain.FilterConversation)
		if !ok || convID == "" {
			return nil, nil, false
		}
		return s.adaptersFor(domain.KindMessage), map[string]string{tagConversation: convID}, true

	case domain.ScopeDocuments:
		return s.adaptersFor(domain.KindDocument), nil, true

	case domain.ScopeProject:
		var tags map[string]string
		if q.ProjectID() != "" {
			tags = map[string]string{tagProject: q.ProjectID()}
		}
		return s.sources, tags, true

	default: // global
		return s.sources, nil, true
	}
}

func (s *Service) adaptersFor(kind domain.Kind) []SourceAdapter {
	for _, a := range s.sources {
		if a.Kind() == kind {
			return []SourceAdapter{a}
		}
	}
	return nil
}

func (s *Service) absorbSourceError(kind domain.Kind, mode string, err error) {
	metrics.SearchSourceErrorsTotal.WithLabelValues(string(kind)).Inc()
	s.logger.Warn("Source adapter failed, degrading to empty list",
		zap.String("source", string(kind)),
		zap.String("mode", mode),
		zap.Error(err),
	)
}

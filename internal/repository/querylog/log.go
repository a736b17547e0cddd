// Package querylog records search analytics: a capped list of recent
// searches and a popularity ranking used for suggestions. Everything here is
// best-effort telemetry; a failed append never fails a search.
package querylog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
)

// store is the consumer interface for analytics storage (ISP).
type store interface {
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)
	ZIncrBy(ctx context.Context, key string, incr float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int) ([]db.ScoredMember, error)
}

// DefaultRecentCapacity caps the recent-search list.
const DefaultRecentCapacity = 1000

// Log is the search analytics repository.
type Log struct {
	store     store
	recentKey string
	rankKey   string
	capacity  int
	logger    *zap.Logger
}

// New creates a query log under the given key prefix.
func New(s store, keyPrefix string, logger *zap.Logger) *Log {
	return &Log{
		store:     s,
		recentKey: keyPrefix + "querylog:recent",
		rankKey:   keyPrefix + "querylog:rank",
		capacity:  DefaultRecentCapacity,
		logger:    logger,
	}
}

// WithCapacity overrides the recent-list cap.
func (l *Log) WithCapacity(n int) *Log {
	if n > 0 {
		l.capacity = n
	}
	return l
}

// recordDTO is the stored wire form of an analytics record.
type recordDTO struct {
	ID               string `json:"id"`
	Query            string `json:"query"`
	Scope            string `json:"scope"`
	ResultCount      int    `json:"resultCount"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	UserID           string `json:"userId,omitempty"`
	ProjectID        string `json:"projectId,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}

// Append stores one analytics record and bumps the query's popularity.
// The record gets a fresh UUID; the caller never supplies one.
func (l *Log) Append(ctx context.Context, rec domain.AnalyticsRecord) error {
	rec.ID = uuid.NewString()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	data, err := json.Marshal(recordDTO{
		ID:               rec.ID,
		Query:            rec.Query,
		Scope:            string(rec.Scope),
		ResultCount:      rec.ResultCount,
		ProcessingTimeMs: rec.ProcessingTimeMs,
		UserID:           rec.UserID,
		ProjectID:        rec.ProjectID,
		Timestamp:        rec.Timestamp.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal analytics record: %w", err)
	}

	if err := l.store.LPush(ctx, l.recentKey, string(data)); err != nil {
		return fmt.Errorf("append analytics record: %w", err)
	}
	if err := l.store.LTrim(ctx, l.recentKey, 0, l.capacity-1); err != nil {
		l.logger.Warn("Failed to trim the recent-search list", zap.Error(err))
	}

	if err := l.store.ZIncrBy(ctx, l.rankKey, 1, normalizeQuery(rec.Query)); err != nil {
		l.logger.Warn("Failed to bump query popularity", zap.Error(err))
	}
	return nil
}

// Recent returns up to n most recent analytics records, newest first.
// Undecodable entries are skipped.
func (l *Log) Recent(ctx context.Context, n int) ([]domain.AnalyticsRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	raw, err := l.store.LRange(ctx, l.recentKey, 0, n-1)
	if err != nil {
		return nil, fmt.Errorf("read recent searches: %w", err)
	}

	out := make([]domain.AnalyticsRecord, 0, len(raw))
	for _, item := range raw {
		var dto recordDTO
		if err := json.Unmarshal([]byte(item), &dto); err != nil {
			l.logger.Warn("Skipping undecodable analytics record", zap.Error(err))
			continue
		}
		out = append(out, domain.AnalyticsRecord{
			ID:               dto.ID,
			Query:            dto.Query,
			Scope:            domain.Scope(dto.Scope),
			ResultCount:      dto.ResultCount,
			ProcessingTimeMs: dto.ProcessingTimeMs,
			UserID:           dto.UserID,
			ProjectID:        dto.ProjectID,
			Timestamp:        time.Unix(dto.Timestamp, 0).UTC(),
		})
	}
	return out, nil
}

// Popular returns up to n queries by descending search frequency.
func (l *Log) Popular(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	members, err := l.store.ZRevRange(ctx, l.rankKey, 0, n-1)
	if err != nil {
		return nil, fmt.Errorf("read popular queries: %w", err)
	}

	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Member)
	}
	return out, nil
}

// normalizeQuery folds trivially distinct spellings into one rank member.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

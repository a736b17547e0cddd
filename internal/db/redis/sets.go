package redis

import (
	"context"
	"strconv"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
)

// SAdd adds members to an unordered set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns all members of a set. A missing set yields an empty slice.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

// ZIncrBy increments a sorted-set member's score.
func (s *Store) ZIncrBy(ctx context.Context, key string, incr float64, member string) error {
	cmd := s.b().Zincrby().Key(key).Increment(incr).Member(member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZIncrBy, Err: err}
	}
	return nil
}

// ZRevRange returns the top members by descending score, inclusive bounds.
func (s *Store) ZRevRange(ctx context.Context, key string, start, stop int) ([]db.ScoredMember, error) {
	cmd := s.b().Arbitrary("ZREVRANGE").
		Args(key, strconv.Itoa(start), strconv.Itoa(stop), "WITHSCORES").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRange, Err: err}
	}

	members := make([]db.ScoredMember, 0, len(raw)/2)
	// Flat pairs: [member1, score1, member2, score2, ...]
	for i := 0; i+1 < len(raw); i += 2 {
		member, err := raw[i].ToString()
		if err != nil {
			continue
		}
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		members = append(members, db.ScoredMember{Member: member, Score: score})
	}
	return members, nil
}

// LPush prepends values to a list.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	cmd := s.b().Lpush().Key(key).Element(values...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// LTrim trims a list to the given inclusive range.
func (s *Store) LTrim(ctx context.Context, key string, start, stop int) error {
	cmd := s.b().Ltrim().Key(key).Start(int64(start)).Stop(int64(stop)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// LRange returns list elements in the given inclusive range.
func (s *Store) LRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(int64(start)).Stop(int64(stop)).Build()
	values, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return values, nil
}

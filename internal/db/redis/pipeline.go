package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/josephsamijona/gitchatai-sub000/internal/db"
)

// MGet fetches multiple keys in one round trip. Missing keys yield nil entries,
// preserving key order.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.b().Mget().Key(keys...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	values := make([][]byte, len(keys))
	for i := range raw {
		if i >= len(values) {
			break
		}
		data, err := raw[i].AsBytes()
		if err != nil {
			// nil reply for a missing key
			continue
		}
		values[i] = data
	}
	return values, nil
}

// MSetWithTTL stores multiple values in a single DoMulti round trip.
// Each item carries its own TTL; a zero TTL stores without expiry.
func (s *Store) MSetWithTTL(ctx context.Context, items []db.KVItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(items))
	for _, it := range items {
		if it.TTL > 0 {
			cmds = append(cmds, s.b().Set().Key(it.Key).Value(string(it.Value)).Ex(it.TTL).Build())
		} else {
			cmds = append(cmds, s.b().Set().Key(it.Key).Value(string(it.Value)).Build())
		}
	}

	for _, res := range s.doMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpSet, Err: err}
		}
	}
	return nil
}

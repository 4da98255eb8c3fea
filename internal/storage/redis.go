package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/reportkit/dashboard/internal/schema"
)

const redisKeyPrefix = "dashboard:"

// RedisStore keeps snapshots as JSON values under a fixed key prefix. A SET of
// one key is atomic on the server, which preserves last-writer-wins without
// extra locking.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, id string, state schema.DashboardState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return s.rdb.Set(ctx, redisKeyPrefix+id, payload, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (schema.DashboardState, error) {
	payload, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return schema.DashboardState{}, ErrNotFound
	}
	if err != nil {
		return schema.DashboardState{}, err
	}

	var state schema.DashboardState
	if err := json.Unmarshal(payload, &state); err != nil {
		return schema.DashboardState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]schema.DashboardState, error) {
	var all []schema.DashboardState
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted between scan and get
		}
		if err != nil {
			return nil, err
		}
		var state schema.DashboardState
		if err := json.Unmarshal(payload, &state); err != nil {
			return nil, fmt.Errorf("failed to decode state: %w", err)
		}
		all = append(all, state)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return all, nil
}

package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type redisClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	DedupKey(scope, eventID string) string
}

// RedisStore shares the dedup window across instances. The key TTL is the
// window, so redis handles eviction.
type RedisStore struct {
	client redisClient
	scope  string
	window time.Duration
}

func NewRedisStore(client redisClient, scope string, window time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisStore{client: client, scope: scope, window: window}, nil
}

func (r *RedisStore) IsDuplicate(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errEmptyID
	}
	set, err := r.client.SetNX(ctx, r.client.DedupKey(r.scope, id), "1", r.window)
	if err != nil {
		return false, fmt.Errorf("set dedup key: %w", err)
	}
	return !set, nil
}

func (r *RedisStore) Forget(ctx context.Context, id string) error {
	if id == "" {
		return errEmptyID
	}
	return r.client.Del(ctx, r.client.DedupKey(r.scope, id))
}

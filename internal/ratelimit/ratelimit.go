// Package ratelimit throttles login attempts with a fixed window
// counter kept in Redis. The limiter only guards the login route; the
// rest of the API stays unthrottled.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store counts hits per key within a window.
type Store interface {
	// Incr bumps the counter for key and returns the new count. The
	// first hit in a window starts the expiry clock.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a Redis client as a counter store
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count, nil
}

// Limiter enforces a maximum number of hits per key per window.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewLimiter creates a limiter allowing limit hits per window
func NewLimiter(store Store, limit int64, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is still within
// the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Incr(ctx, "ratelimit:"+key, l.window)
	if err != nil {
		return false, err
	}
	return count <= l.limit, nil
}

// Package ratelimit provides a Redis-backed fixed-window rate limiter.
// State lives in Redis so limits survive process restarts and hold across
// multiple API instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a caller may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// FixedWindow counts requests per key in aligned time windows.
type FixedWindow struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewFixedWindow(client *redis.Client, max int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		client: client,
		max:    max,
		window: window,
	}
}

// Allow increments the counter for the key's current window and reports
// whether the caller is still under the limit. Redis errors are returned
// to the caller; the fail-open/fail-closed choice belongs there.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	windowID := time.Now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowID)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return incr.Val() <= int64(l.max), nil
}

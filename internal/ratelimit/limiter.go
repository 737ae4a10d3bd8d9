// Package ratelimit throttles callers with a sliding-window counter kept in
// Redis. The counter is shared by every service process, so the limit holds
// across a horizontally-scaled deployment - a process-local map could not
// give that property. It is throttling, not a correctness guarantee: on
// Redis failure the limiter fails open.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	redis       *redis.Client
	window      time.Duration
	maxRequests int
}

func New(client *redis.Client, window time.Duration, maxRequests int) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("[ratelimit.New] redis client is required")
	}
	if window <= 0 || maxRequests <= 0 {
		return nil, errors.New("[ratelimit.New] window and maxRequests must be positive")
	}
	return &Limiter{
		redis:       client,
		window:      window,
		maxRequests: maxRequests,
	}, nil
}

// Allow records one request for identifier and reports whether it is within
// the window's budget.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s", identifier)

	pipe := l.redis.Pipeline()
	now := time.Now().UnixNano()
	windowStart := now - l.window.Nanoseconds()

	// Drop entries outside the window, count what's left, record this
	// request, and keep the key from lingering.
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, l.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, errors.Wrap(err, "[Limiter.Allow] redis pipeline")
	}

	return countCmd.Val() < int64(l.maxRequests), nil
}

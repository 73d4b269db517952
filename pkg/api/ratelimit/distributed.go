package ratelimit

// Re-exports from adapters/redis for callers that only import the top-level
// ratelimit package. New code wiring a Redis client directly can use
// adapters/redis.New and its own Strategy enum.

import (
	"context"
	"time"

	"github.com/chris-alexander-pop/commander-core/pkg/api/ratelimit/adapters/redis"
	goredis "github.com/redis/go-redis/v9"
)

// DistributedLimiter wraps the Redis adapter so HTTP API wiring can select
// either an in-process or a Redis-backed limiter behind the same interface.
type DistributedLimiter = redis.DistributedLimiter

// toRedisStrategy maps the package-level Strategy (only TokenBucket and
// LeakyBucket are exposed there) onto adapters/redis's broader enum, which
// also supports FixedWindow and SlidingWindow for callers that build
// redis.Strategy values directly.
func toRedisStrategy(s Strategy) redis.Strategy {
	if s == StrategyLeakyBucket {
		return redis.StrategyLeakyBucket
	}
	return redis.StrategyTokenBucket
}

// NewDistributedLimiter creates a Redis-backed rate limiter for the given
// client and strategy.
func NewDistributedLimiter(client goredis.Cmdable, strategy Strategy) *DistributedLimiter {
	return redis.New(client, toRedisStrategy(strategy))
}

// DistributedLimiterInterface allows tests to substitute a fake distributed
// limiter without importing go-redis.
type DistributedLimiterInterface interface {
	Allow(ctx context.Context, key string, limit int64, period time.Duration) (*Result, error)
}

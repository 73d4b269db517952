// Package ratelimit provides pluggable request rate limiting strategies.
package ratelimit

import (
	"context"
	"time"
)

// Strategy selects which limiting algorithm a Limiter implements.
type Strategy string

const (
	StrategyTokenBucket Strategy = "token_bucket"
	StrategyLeakyBucket Strategy = "leaky_bucket"
)

// Result is the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Remaining int64
	Reset     time.Duration
}

// Limiter decides whether a keyed caller may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, period time.Duration) (*Result, error)
}

// New returns an in-process limiter for the given strategy. For multi-replica
// deployments, use adapters/redis.New instead.
func New(strategy Strategy) Limiter {
	switch strategy {
	case StrategyLeakyBucket:
		return NewLeakyBucketLimiter()
	default:
		return NewTokenBucketLimiter()
	}
}

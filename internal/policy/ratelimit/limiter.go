// Package ratelimit implements the pool-wide outbound request throttle.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsharvest/harvestd/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Limiter bounds the aggregate request rate across every worker. All workers
// share a single token bucket, so N workers cannot multiply the configured
// rate. Token grants are serialized inside rate.Limiter, which avoids the
// check-then-act race on the last-grant timestamp.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter. A non-positive rate disables throttling.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(r, burst),
	}
}

// Wait blocks the caller until a token is granted or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if d := time.Since(start); d > time.Millisecond {
		metrics.ObserveRateLimitDelay(d)
	}
	return nil
}

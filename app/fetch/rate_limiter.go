package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces outbound requests so that at least minInterval passes
// between consecutive Wait returns. The first Wait never blocks.
type RateLimiter struct {
	limiter     *rate.Limiter
	minInterval time.Duration
}

func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{
		limiter:     rate.NewLimiter(rate.Every(minInterval), 1),
		minInterval: minInterval,
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

func (r *RateLimiter) MinInterval() time.Duration {
	return r.minInterval
}

package clients

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound calls to the campus API
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter; a non-positive rate disables throttling
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a call may proceed or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

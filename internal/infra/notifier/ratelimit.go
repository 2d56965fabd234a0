package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket limiter so alert bursts cannot
// overwhelm the webhook endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// throughput with the given burst capacity.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow blocks until a token is available or the context ends.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

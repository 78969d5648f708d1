package embedding

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitBackoff is used when a 429 carries no Retry-After.
const DefaultRateLimitBackoff = 60 * time.Second

// RateLimiter throttles provider requests with a token bucket and honours
// server-imposed backoff after rate limit responses.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained requests.
// It returns nil when requestsPerSecond is not positive.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// RecordRateLimit pauses all requests for retryAfterSeconds,
// or DefaultRateLimitBackoff when it is not positive.
func (r *RateLimiter) RecordRateLimit(retryAfterSeconds int) {
	if r == nil {
		return
	}
	d := time.Duration(retryAfterSeconds) * time.Second
	if retryAfterSeconds <= 0 {
		d = DefaultRateLimitBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(d); until.After(r.retryAt) {
		r.retryAt = until
	}
}

package github

import (
	"context"
	"fmt"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/logger"
)

// lowRemainingThreshold is the remaining-request count below which the
// limiter starts refusing calls until the reported reset time.
const lowRemainingThreshold = 3

// RateLimiter combines a local token bucket with the rate information
// GitHub reports in its response headers. The bucket smooths bursts;
// the header tracking stops us from burning the last few requests of
// the window.
type RateLimiter struct {
	limiter *rate.Limiter

	mu        sync.Mutex
	remaining int
	resetAt   time.Time
}

// NewRateLimiter creates a limiter tuned for authenticated API use.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(1.2), 1),
		remaining: -1,
	}
}

// Wait blocks until a request may proceed. When the tracked remaining
// budget is nearly exhausted it fails fast with a RateLimitedError
// carrying the time until the window resets.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	if r.remaining >= 0 && r.remaining < lowRemainingThreshold && time.Now().Before(r.resetAt) {
		retryAfter := time.Until(r.resetAt)
		r.mu.Unlock()
		return &domain.RateLimitedError{RetryAfter: retryAfter}
	}
	r.mu.Unlock()

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// UpdateFromResponse records the rate window reported by an API
// response.
func (r *RateLimiter) UpdateFromResponse(resp *gh.Response) {
	if resp == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = resp.Rate.Remaining
	r.resetAt = resp.Rate.Reset.Time
	if r.remaining >= 0 && r.remaining < lowRemainingThreshold {
		logger.Warn("GitHub rate limit nearly exhausted (%d remaining, resets %s)",
			r.remaining, r.resetAt.Format(time.RFC3339))
	}
}

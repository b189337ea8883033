package openai

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OpenAI rate limit headers.
const (
	HeaderRemainingRequests = "X-Ratelimit-Remaining-Requests"
	HeaderResetRequests     = "X-Ratelimit-Reset-Requests"
)

// RateLimiter throttles requests to the embeddings endpoint.
// It combines an optional token bucket with the request quota the API
// reports in its response headers.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int           // From API header, -1 until known
	resetTime time.Time     // From API header
	bucket    *rate.Limiter // Proactive throttling, nil when disabled
}

// NewRateLimiter creates a rate limiter. A non-positive rps disables
// proactive throttling; the header-based check is always active.
func NewRateLimiter(rps float64) *RateLimiter {
	r := &RateLimiter{remaining: -1}
	if rps > 0 {
		r.bucket = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return r
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.bucket != nil {
		if err := r.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining == 0 && time.Now().Before(resetTime) {
		timer := time.NewTimer(time.Until(resetTime))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}

// UpdateFromResponse records the quota reported by a response.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRemainingRequests); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}

	// The reset header is a duration such as "1s" or "6m0s".
	if reset := resp.Header.Get(HeaderResetRequests); reset != "" {
		if d, err := time.ParseDuration(reset); err == nil {
			r.resetTime = time.Now().Add(d)
		}
	}
}

// Remaining returns the last reported remaining request quota, or -1.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Package ratelimit provides call pacing and load profile phase
// management.
package ratelimit

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by all virtual users. A limit of
// 0 disables pacing.
type RateLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Wait blocks until a token is available or ctx is cancelled. Nil
// receivers and a zero limit pass through immediately.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	limiter := r.limiter
	limit := limiter.Limit()
	r.mu.RUnlock()

	if limit == 0 {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetRate updates the limit, typically at a phase transition.
func (r *RateLimiter) SetRate(rps int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiter.SetLimit(rate.Limit(rps))
	r.limiter.SetBurst(rps)
}

// PacedDoer wraps an HTTP client so every outgoing request draws a
// token first. With a nil limiter it is a transparent passthrough.
type PacedDoer struct {
	Next    interface{ Do(*http.Request) (*http.Response, error) }
	Limiter *RateLimiter
}

func (p PacedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := p.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return p.Next.Do(req)
}

package garmin

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Garmin Connect does not publish its limits. It answers 429 with an optional
// Retry-After when a client is too chatty, so requests are spaced out and
// held back entirely while a 429 back-off is in effect.

const (
	defaultMinInterval = 200 * time.Millisecond
	defaultBackoff     = time.Minute
)

// RateLimiter spaces out requests to the Garmin API
type RateLimiter struct {
	mu sync.Mutex

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time

	// Set after a 429
	pausedUntil time.Time
}

// NewRateLimiter creates a rate limiter with the default spacing
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		minInterval: defaultMinInterval,
	}
}

// Wait blocks until a request can be made. It does not retry anything; it
// only delays the next request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	waitUntil := r.lastRequest.Add(r.minInterval)
	if r.pausedUntil.After(waitUntil) {
		waitUntil = r.pausedUntil
	}

	if waitTime := waitUntil.Sub(now); waitTime > 0 {
		r.mu.Unlock()
		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		}
		r.mu.Lock()
	}

	r.lastRequest = time.Now()
	return nil
}

// Observe updates the limiter from a response status and headers
func (r *RateLimiter) Observe(status int, h http.Header) {
	if status != http.StatusTooManyRequests {
		return
	}

	backoff := defaultBackoff
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		backoff = time.Duration(secs) * time.Second
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pausedUntil = time.Now().Add(backoff)
}

// PausedUntil returns the end of the current back-off, or the zero time
func (r *RateLimiter) PausedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Now().After(r.pausedUntil) {
		return time.Time{}
	}
	return r.pausedUntil
}

// Package ratelimiter provides the rate limiting strategies used by the
// API middleware.
package ratelimiter

import "time"

// RateLimiter decides whether a request may proceed.
type RateLimiter interface {
	// Allow returns true if the request is allowed.
	Allow() bool
}

// Algorithm names accepted in configuration.
const (
	AlgorithmTokenBucket   = "tokenBucket"
	AlgorithmSlidingWindow = "slidingWindow"
)

// New creates the limiter for the named algorithm. Unknown names fall
// back to the token bucket.
func New(algorithm string, rate float64, burst int) RateLimiter {
	switch algorithm {
	case AlgorithmSlidingWindow:
		return NewSlidingWindow(burst, time.Second, 10)
	default:
		return NewTokenBucket(rate, burst)
	}
}

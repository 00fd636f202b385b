// Package ratelimit tracks the throttle headers returned by the content API
// (X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After, X-RateLimit-Reset)
// and gates outgoing requests so the site backs off before the API starts
// answering 429.
package ratelimit

import (
	"time"
)

// Thresholds on remaining requests in the current window.
const (
	// ThresholdCritical blocks requests when remaining falls below it.
	ThresholdCritical = 1

	// ThresholdWarning throttles requests when remaining falls below it.
	ThresholdWarning = 5

	// ThresholdHealthy marks the state healthy at or above it.
	ThresholdHealthy = 20
)

// DefaultWindow is assumed when the API sends no reset information.
// Laravel's default API throttle is 60 requests per minute.
const DefaultWindow = 60 * time.Second

// RateLimitState is the last known throttle state for one upstream host.
type RateLimitState struct {
	// Remaining is the X-RateLimit-Remaining value.
	Remaining int `json:"remaining"`

	// Limit is the X-RateLimit-Limit value, 0 when unknown.
	Limit int `json:"limit"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	LastUpdate time.Time `json:"last_update"`

	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// windowOpen reports whether the recorded window has not reset yet.
func (s *RateLimitState) windowOpen() bool {
	return time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests must not be sent until reset.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.windowOpen() && s.Remaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.windowOpen() && s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy. A reset window is always healthy.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = !s.windowOpen() || s.Remaining >= ThresholdHealthy
}

// healthyState is assumed before any headers have been seen.
func healthyState() *RateLimitState {
	now := time.Now()
	return &RateLimitState{
		Remaining:  ThresholdHealthy,
		ResetAt:    now,
		LastUpdate: now,
		IsHealthy:  true,
	}
}

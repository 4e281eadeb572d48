// Package ratelimit tracks the collection API's request budget and gates
// requests before the budget runs out. The budget is read from the
// X-RateLimit-Remaining and X-RateLimit-Reset response headers and shared
// through Redis, so every process talking to the API sees the same numbers.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "artic:rate_limit:remaining"
	RedisKeyResetTimestamp = "artic:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "artic:rate_limit:last_update"
)

// Response headers carrying the budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for rate limit decisions. The public API allows 60 requests per
// minute per client.
const (
	// ThresholdCritical blocks requests when fewer requests remain.
	ThresholdCritical = 2

	// ThresholdWarning throttles requests when fewer requests remain.
	ThresholdWarning = 10

	// ThresholdHealthy marks the budget healthy at or above this value.
	ThresholdHealthy = 30
)

// State is the current request budget.
type State struct {
	// Remaining requests in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets, 0 if passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}

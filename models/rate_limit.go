package models

import "time"

// RateLimitSnapshot is the quota state derived from one response's rate-limit
// headers. It is returned alongside every feed response so callers can thread
// it through instead of relying on hidden client state. A zero snapshot means
// the quota is unknown.
type RateLimitSnapshot struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (s RateLimitSnapshot) Known() bool {
	return !s.ResetAt.IsZero()
}

// Exhausted reports whether the snapshot forbids issuing a request right now.
// Quota tracking is process-local, so this is an optimization: headers on the
// next response remain the source of truth.
func (s RateLimitSnapshot) Exhausted(now time.Time) bool {
	return s.Known() && s.Remaining <= 0 && s.ResetAt.After(now)
}

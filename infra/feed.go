package infra

import "time"

// FeedConfig describes the upstream events API. The token is optional; the
// public feed works unauthenticated with a much smaller quota.
type FeedConfig struct {
	BaseUrl    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Base errors shared across repositories and usecases
var (
	// BadParameterError covers callers passing a value that can never be valid
	BadParameterError = errors.New("bad parameter")

	// NotFoundError is returned when a row or blob does not exist
	NotFoundError = errors.New("not found")

	// ConflictError is returned on unique constraint violations
	ConflictError = errors.New("duplicate value")
)

// Upstream feed client taxonomy. The classification is computed once per
// response from the status code and rate-limit headers; callers dispatch on
// these sentinels with errors.Is.
var (
	// NetworkError: transport-level failure (connect, timeout). Retryable by the caller.
	NetworkError = errors.New("upstream network failure")

	// RateLimitError: quota exhausted, locally or as reported by the server.
	// Retryable after the reset window.
	RateLimitError = errors.New("rate limit exceeded")

	// ApiError: non-quota 4xx, unexpected 5xx or an unparseable body. Not retried.
	ApiError = errors.New("upstream api error")
)

var (
	// StorageError: payload blob store failure that is not a simple missing key
	StorageError = errors.New("payload storage failure")

	// EnrichmentError wraps an internal failure of one enrichment attempt
	// (state transition or persistence), not a resource fetch failure.
	EnrichmentError = errors.New("enrichment attempt failed")

	ParseError = errors.New("malformed event payload")
)

// RateLimitExceededError carries the quota snapshot taken from the response
// (or the local fast-fail state) so the caller can schedule its retry after
// the reset instant.
type RateLimitExceededError struct {
	Quota RateLimitSnapshot
}

func (e RateLimitExceededError) Error() string {
	if e.Quota.ResetAt.IsZero() {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.Quota.ResetAt.Format(time.RFC3339))
}

func (e RateLimitExceededError) Unwrap() error {
	return RateLimitError
}

// MissingFieldsError reports every required push field that could not be
// extracted, not just the first one.
type MissingFieldsError struct {
	Fields []string
}

func (e MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e MissingFieldsError) Unwrap() error {
	return ParseError
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitSnapshotExhausted(t *testing.T) {
	now := time.Now()

	t.Run("zero snapshot is unknown, never exhausted", func(t *testing.T) {
		assert.False(t, RateLimitSnapshot{}.Exhausted(now))
	})

	t.Run("remaining quota is not exhausted", func(t *testing.T) {
		snapshot := RateLimitSnapshot{Limit: 60, Remaining: 10, ResetAt: now.Add(time.Hour)}
		assert.False(t, snapshot.Exhausted(now))
	})

	t.Run("zero remaining before the reset is exhausted", func(t *testing.T) {
		snapshot := RateLimitSnapshot{Limit: 60, Remaining: 0, ResetAt: now.Add(time.Hour)}
		assert.True(t, snapshot.Exhausted(now))
	})

	t.Run("past reset is not exhausted", func(t *testing.T) {
		snapshot := RateLimitSnapshot{Limit: 60, Remaining: 0, ResetAt: now.Add(-time.Minute)}
		assert.False(t, snapshot.Exhausted(now))
	})
}

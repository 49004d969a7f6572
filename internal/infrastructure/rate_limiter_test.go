package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedRateLimiter_PerKeyBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedRateLimiter(rate.Every(time.Second), 2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst spent")
	assert.True(t, l.Allow("b"), "other keys have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "refilled after one interval")
}

func TestKeyedRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedRateLimiter(rate.Every(time.Second), 1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(2 * time.Minute)
	l.Allow("new")

	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 1, l.Len())
}

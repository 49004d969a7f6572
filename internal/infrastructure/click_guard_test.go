package infrastructure

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClickGuard_Debounces(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewClickGuard(2 * time.Second)
	g.now = func() time.Time { return now }

	assert.True(t, g.Allow("tg:1"))
	assert.False(t, g.Allow("tg:1"))
	assert.True(t, g.Allow("tg:2"))

	now = now.Add(2 * time.Second)
	assert.True(t, g.Allow("tg:1"))
}

func TestClickGuard_CleanupDropsExpiredKeys(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewClickGuard(2 * time.Second)
	g.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		g.Allow(fmt.Sprintf("tg:%d", i))
	}
	now = now.Add(time.Second)
	g.Allow("tg:recent")
	assert.Zero(t, g.Cleanup(), "nothing is outside the window yet")
	assert.Equal(t, 51, g.Len())

	now = now.Add(time.Second)
	assert.Equal(t, 50, g.Cleanup())
	assert.Equal(t, 1, g.Len())
	assert.False(t, g.Allow("tg:recent"), "a live key keeps debouncing")
}

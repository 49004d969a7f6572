package infrastructure

import (
	"sync"
	"time"
)

// ClickGuard debounces repeated button presses per conversation.
type ClickGuard struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

func NewClickGuard(window time.Duration) *ClickGuard {
	return &ClickGuard{
		last:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a press for key is outside the debounce window
// and records it if so.
func (g *ClickGuard) Allow(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[key]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[key] = now
	return true
}

// Cleanup drops keys whose last press is outside the window and returns
// how many were removed.
func (g *ClickGuard) Cleanup() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for key, last := range g.last {
		if now.Sub(last) >= g.window {
			delete(g.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (g *ClickGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}

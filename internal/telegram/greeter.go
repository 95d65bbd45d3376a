package telegram

import (
	"sync"
	"time"
)

// Cooldown lets at most one greeting through per window. A zero window
// disables the limit.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, now: time.Now}
}

// Allow reports whether a greeting may be sent now and, if so, starts a new
// window.
func (c *Cooldown) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.window > 0 && !c.last.IsZero() && now.Sub(c.last) < c.window {
		return false
	}
	c.last = now
	return true
}

// Destination is a chat and optional forum thread.
type Destination struct {
	ChatID   int64
	ThreadID int
}

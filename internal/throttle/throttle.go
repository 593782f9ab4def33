// Package throttle gates interactive lookup triggers. It never blocks:
// callers get an allow/deny answer plus the wait remaining, and decide for
// themselves whether to wait or decline. Internal fetches driven by
// pagination or retries bypass this gate entirely.
package throttle

import (
	"sync"
	"time"
)

// DefaultMinInterval is the floor between interactive triggers.
const DefaultMinInterval = 2 * time.Second

// Gate is the single mutual-exclusion point shared by all interactive
// triggers.
type Gate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// New creates a gate with the given minimum interval between allowed
// calls. Non-positive intervals take the default.
func New(interval time.Duration) *Gate {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &Gate{interval: interval}
}

// Allow reports whether a trigger at now may proceed. When denied, wait is
// how long the caller must hold off; denial is advice, not an error, and
// does not consume the slot.
func (g *Gate) Allow(now time.Time) (ok bool, wait time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if elapsed := now.Sub(g.last); !g.last.IsZero() && elapsed < g.interval {
		return false, g.interval - elapsed
	}
	g.last = now
	return true, 0
}

// Reset forgets the last trigger, so the next Allow succeeds.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = time.Time{}
}

package breaker

import (
	"sync"
	"time"
)

// Clock is the time source the engine consults for cooldown and
// rolling-window math. The teacher calls time.Now() directly throughout
// internal/breaker/state.go; that makes the Open→HalfOpen cooldown
// untestable without a real sleep. Every time-dependent call here goes
// through this seam instead.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock, backed by time.Now().
var SystemClock Clock = systemClock{}

// ManualClock is a Clock a test can advance deterministically, used to
// exercise cooldown and rolling-window behavior without real sleeps.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

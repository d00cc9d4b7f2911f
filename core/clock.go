package core

import (
	"sync"
	"time"
)

// Seconds is a duration in the unit of second.
type Seconds float64

// A Clock tells the wall-clock time the scheduler uses to compute frame
// deltas.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a clock backed by the monotonic system clock.
func SystemClock() Clock {
	return systemClock{}
}

// A ManualClock is a clock advanced explicitly. Tests use it to drive
// frames with exact deltas.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time for ManualClock.
var Epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// ManualClock is a wall clock that only moves when told to.
//
// Unlike engine.SystemClock, ManualClock lets a test step the simulation
// through exact millisecond boundaries (awakening every 1.2s, 4s rot, 30s
// stone sleep) without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock at Epoch.
func NewManualClock() *ManualClock {
	return &ManualClock{now: Epoch}
}

// NewManualClockAt creates a clock at t.
func NewManualClockAt(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
// Negative durations are ignored; the clock never runs backwards.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

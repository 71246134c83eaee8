package cli

import (
	"sync"
	"time"
)

// runEpoch is where a fresh headless run starts.
var runEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// simClock is the wall clock of a headless run. Only the run loop moves it,
// one frame at a time.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock() *simClock {
	return &simClock{now: runEpoch}
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// advance moves the clock forward by d and returns the new time.
func (c *simClock) advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// catchUp moves the clock to t unless it is already later.
func (c *simClock) catchUp(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

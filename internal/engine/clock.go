package engine

import "time"

// Clock supplies wall-clock time to commands that do not receive an explicit
// now (spawns, omen cooldowns, interaction stamps).
//
// The frame loop and timed commands take now as a parameter instead, so a
// test can drive the whole simulation from a testutil.ManualClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

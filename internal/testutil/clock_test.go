package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock()
	assert.Equal(t, Epoch, clock.Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock()

	got := clock.Advance(1200 * time.Millisecond)
	assert.Equal(t, Epoch.Add(1200*time.Millisecond), got)
	assert.Equal(t, got, clock.Now())

	// Negative advances are ignored
	clock.Advance(-time.Hour)
	assert.Equal(t, got, clock.Now())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock()
	target := Epoch.Add(time.Minute)
	clock.Set(target)
	assert.Equal(t, target, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock()
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(numGoroutines*time.Millisecond), clock.Now())
}

func TestScriptedRand_ScriptThenFallback(t *testing.T) {
	r := NewScriptedRand(0.1, 0.9)

	assert.Equal(t, 0.1, r.Float64())
	assert.Equal(t, 0.9, r.Float64())
	assert.Equal(t, 0.5, r.Float64())
	assert.Equal(t, 3, r.Draws())

	r.WithFallback(0.99)
	assert.Equal(t, 0.99, r.Float64())

	r.Push(0.25)
	assert.Equal(t, 0.25, r.Float64())
}

func TestScriptedRand_RejectsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { NewScriptedRand(1.0) })
	assert.Panics(t, func() { NewScriptedRand(-0.1) })
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs()
	require.Equal(t, "1", ids.Generate())
	require.Equal(t, "2", ids.Generate())

	ids.Reset()
	assert.Equal(t, "1", ids.Generate())
}

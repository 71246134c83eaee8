package testutil

import (
	"fmt"
	"sync"
)

// ScriptedRand returns predetermined values from Float64.
//
// Once the script is exhausted it keeps returning the fallback value, so a
// test only needs to script the draws it cares about. Every draw is
// recorded; Draws tells a test how many decisions the engine made.
//
// Thread-safety: ScriptedRand is safe for concurrent use via internal mutex.
type ScriptedRand struct {
	mu       sync.Mutex
	values   []float64
	fallback float64
	draws    int
}

// NewScriptedRand creates a source returning values in order, then 0.5.
func NewScriptedRand(values ...float64) *ScriptedRand {
	for _, v := range values {
		if v < 0 || v >= 1 {
			panic(fmt.Sprintf("ScriptedRand: value %v outside [0,1)", v))
		}
	}
	return &ScriptedRand{values: values, fallback: 0.5}
}

// WithFallback sets the value returned after the script runs out.
func (r *ScriptedRand) WithFallback(v float64) *ScriptedRand {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = v
	return r
}

// Push appends more scripted values.
func (r *ScriptedRand) Push(values ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, values...)
}

// Float64 returns the next scripted value.
func (r *ScriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws++
	if len(r.values) == 0 {
		return r.fallback
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

// Draws returns how many values have been consumed.
func (r *ScriptedRand) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}

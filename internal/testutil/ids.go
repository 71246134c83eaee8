package testutil

import (
	"strconv"
	"sync"
)

// SequentialIDs generates "1", "2", "3", ...
//
// The engine prefixes ids ("seed-1", "god-2"), so golden traces and state
// assertions can name entities directly.
//
// Thread-safety: SequentialIDs is safe for concurrent use.
type SequentialIDs struct {
	mu sync.Mutex
	n  int
}

// NewSequentialIDs creates a generator whose first id is "1".
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
//
// Implements engine.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return strconv.Itoa(g.n)
}

// Reset restarts the sequence at "1".
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

package engine

import (
	"github.com/google/uuid"
)

// IDGenerator produces the unique suffix of seed and god ids.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs
// (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so the sorted-id
// iteration the tick functions use follows spawn order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

const (
	seedPrefix = "seed-"
	godPrefix  = "god-"
)

func (e *Engine) newSeedID() string { return seedPrefix + e.ids.Generate() }
func (e *Engine) newGodID() string  { return godPrefix + e.ids.Generate() }

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/testutil"
)

func TestSystemClock_Now(t *testing.T) {
	before := time.Now()
	got := SystemClock{}.Now()
	assert.False(t, got.Before(before))
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}
	const iterations = 1000

	seen := make(map[string]bool, iterations)
	for range iterations {
		id := g.Generate()
		require.Len(t, id, 36)
		assert.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
}

func TestEngine_IDsArePrefixed(t *testing.T) {
	e := New(WithIDs(testutil.NewSequentialIDs()), WithClock(testutil.NewManualClock()))
	assert.Equal(t, "seed-1", e.newSeedID())
	assert.Equal(t, "god-2", e.newGodID())
}

func TestCrossedBoundary(t *testing.T) {
	base := time.UnixMilli(1200 * 1000)

	assert.False(t, crossedBoundary(base, base.Add(1199*time.Millisecond), awakeningInterval))
	assert.True(t, crossedBoundary(base, base.Add(1200*time.Millisecond), awakeningInterval))
	assert.True(t, crossedBoundary(base.Add(-time.Millisecond), base, awakeningInterval))
}

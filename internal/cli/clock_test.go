package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimClock(t *testing.T) {
	c := newSimClock()
	assert.Equal(t, runEpoch, c.Now())

	got := c.advance(16 * time.Millisecond)
	assert.Equal(t, runEpoch.Add(16*time.Millisecond), got)
	assert.Equal(t, got, c.Now())

	c.catchUp(runEpoch)
	assert.Equal(t, got, c.Now(), "catching up never moves the clock back")

	later := runEpoch.Add(time.Hour)
	c.catchUp(later)
	assert.Equal(t, later, c.Now())
}

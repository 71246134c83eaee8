package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
)

func testState() engine.State {
	return engine.State{
		Entropy:     62.5,
		EntropyRaw:  62.5,
		Season:      domain.Autumn,
		SeasonCount: 1,
		PersistentSeeds: map[string]engine.Seed{
			"seed-1": {ID: "seed-1", State: domain.Mature},
			"seed-2": {ID: "seed-2", State: domain.Growing},
		},
		PersistentGods: map[string]engine.God{"god-1": {ID: "god-1"}},
		Stats:          engine.Stats{Awakened: 1, Harvested: 2, OmenCount: 1},
	}
}

func TestFromState(t *testing.T) {
	s := FromState(120, 2*time.Second, testState())

	assert.Equal(t, 120, s.Frame)
	assert.Equal(t, int64(2000), s.SimMs)
	assert.Equal(t, domain.Fever, s.Tier)
	assert.Equal(t, 2, s.Seeds)
	assert.Equal(t, 1, s.Mature)
	assert.Equal(t, 1, s.Gods)
	assert.Equal(t, engine.Score(testState().Stats, 1, 62.5), s.Score)
	assert.Empty(t, s.Ending)
}

func TestFromState_Ended(t *testing.T) {
	st := testState()
	st.Ending = &engine.Ending{Type: domain.StoneSleep, Score: 77}

	s := FromState(1, 0, st)
	assert.Equal(t, domain.StoneSleep, s.Ending)
	assert.Equal(t, 77.0, s.Score)
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	b := binder.New(c, nil)
	b.UpdateEntropy(95)

	var s Sample
	c.Drain(&s)
	// tier exit+enter, four thresholds, seizure
	assert.Equal(t, 7, s.Events)
	assert.Equal(t, 4, s.Thresholds)
	assert.Equal(t, 1, s.Seizures)

	c.Drain(&s)
	assert.Zero(t, s.Events, "drain resets the window")
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	first := FromState(60, time.Second, testState())
	first.Events = 3
	second := FromState(120, 2*time.Second, testState())
	require.NoError(t, w.Write(first))
	require.NoError(t, w.Write(second))
	assert.Equal(t, 2, w.Rows())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "one header and two rows")
	assert.True(t, strings.HasPrefix(lines[0], "frame,sim_ms,entropy,"))

	got, err := ReadSamples(&buf)
	require.NoError(t, err)
	assert.Equal(t, []Sample{first, second}, got)
}

func TestCreate(t *testing.T) {
	w, err := Create("")
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, w.Write(Sample{}), "nil writer discards")
	assert.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "out", "telemetry.csv")
	w, err = Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(Sample{Frame: 1, Tier: domain.Dormant}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dormant")
}

package engine

import (
	"encoding/json"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/story"
	"github.com/roach88/godseed/internal/testutil"
)

// fixture wires an engine to deterministic collaborators.
type fixture struct {
	e     *Engine
	clock *testutil.ManualClock
	rnd   *testutil.ScriptedRand
	ids   *testutil.SequentialIDs
	rec   *event.Recorder
}

func newFixture(t *testing.T, draws ...float64) *fixture {
	t.Helper()
	return newFixtureWith(t, testutil.NewScriptedRand(draws...))
}

func newFixtureWith(t *testing.T, rnd *testutil.ScriptedRand, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock: testutil.NewManualClock(),
		rnd:   rnd,
		ids:   testutil.NewSequentialIDs(),
		rec:   &event.Recorder{},
	}
	base := []Option{
		WithClock(f.clock),
		WithRand(f.rnd),
		WithIDs(f.ids),
		WithBinder(binder.New(f.rec, nil)),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	f.e = New(append(base, opts...)...)
	return f
}

func (f *fixture) now() time.Time {
	return f.clock.Now()
}

func TestNew_FreshState(t *testing.T) {
	f := newFixture(t)
	s := f.e.Snapshot()

	assert.Equal(t, domain.SlotA, s.SaveSlot)
	assert.Equal(t, domain.Spring, s.Season)
	assert.Equal(t, f.now().Add(firstSeasonLength), s.SeasonUntil)
	assert.Zero(t, s.Entropy)
	assert.False(t, s.RunOver)
	assert.Len(t, s.DomainAlignments, len(domain.Domains))
	assert.Empty(t, s.PersistentSeeds)
	assert.Empty(t, f.rec.Names(), "construction emits nothing")
}

func TestNew_WithSlot(t *testing.T) {
	e := New(WithSlot(domain.SlotC), WithClock(testutil.NewManualClock()))
	assert.Equal(t, domain.SlotC, e.Snapshot().SaveSlot)
}

func TestClampEntropy(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{-3, 0},
		{0, 0},
		{0.126, 0.13},
		{0.124, 0.12},
		{42.5, 42.5},
		{100, 100},
		{250, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampEntropy(tt.raw), "raw %v", tt.raw)
	}
}

func TestModifyEntropy_StaysClamped(t *testing.T) {
	f := newFixture(t)
	r := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		f.e.ModifyEntropy(r.Float64()*400-200, "test")
		got := f.e.Entropy()
		require.GreaterOrEqual(t, got, 0.0)
		require.LessOrEqual(t, got, 100.0)
		require.Equal(t, got, f.e.Snapshot().Entropy)
		require.GreaterOrEqual(t, f.e.Snapshot().EntropyRaw, 0.0)
	}
}

func TestModifyEntropy_ExtremeDeltasStayFinite(t *testing.T) {
	tests := []struct {
		name   string
		deltas []float64
		want   float64
	}{
		{name: "overflow then drain", deltas: []float64{math.MaxFloat64, math.MaxFloat64, -math.MaxFloat64}, want: 0},
		{name: "infinities ignored", deltas: []float64{10, math.Inf(1), math.Inf(-1)}, want: 10},
		{name: "nan ignored", deltas: []float64{20, math.NaN()}, want: 20},
		{name: "ceiling", deltas: []float64{maxEntropyRaw * 3, -maxEntropyRaw + 40}, want: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, d := range tt.deltas {
				f.e.ModifyEntropy(d, "test")
			}

			s := f.e.Snapshot()
			assert.Equal(t, tt.want, s.Entropy)
			assert.False(t, math.IsInf(s.EntropyRaw, 0) || math.IsNaN(s.EntropyRaw))
			assert.LessOrEqual(t, s.EntropyRaw, maxEntropyRaw)

			blob := f.e.ExportSave()
			assert.True(t, json.Valid([]byte(blob)), "state must still export")
		})
	}
}

func TestModifyEntropy_RawFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(-50, "test")
	f.e.ModifyEntropy(5, "test")

	assert.Equal(t, 5.0, f.e.Entropy(), "raw must not carry a negative debt")
}

func TestModifyEntropy_RawMayExceedHundred(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(130, "test")
	f.e.ModifyEntropy(-20, "test")

	assert.Equal(t, 100.0, f.e.Entropy())
	assert.Equal(t, 110.0, f.e.Snapshot().EntropyRaw)
}

func TestModifyEntropy_EdgeTriggered(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(55, "test")
	f.rec.Reset()

	// 65, 70, 73, 55, 54, 52
	for _, d := range []float64{10, 5, 3, -18, -1, -2} {
		f.e.ModifyEntropy(d, "test")
	}

	assert.Equal(t, []string{"entropy.enter.60", "entropy.exit.60"}, f.rec.Names())
}

func TestModifyEntropy_SeizureJump(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(95, "test")

	assert.Equal(t, []string{
		"entropy.tier.exit.Dormant",
		"entropy.tier.enter.Seizure",
		"entropy.enter.40",
		"entropy.enter.60",
		"entropy.enter.80",
		"entropy.enter.90",
		"entropy.seizure",
	}, f.rec.Names())

	f.rec.Reset()
	f.e.ModifyEntropy(1, "test")
	assert.Empty(t, f.rec.Names(), "no event without a crossing")
}

func TestModifyEntropy_PassiveSourcesKeepIdleClock(t *testing.T) {
	f := newFixture(t)
	start := f.now()
	f.e.ModifyEntropy(5, "test")
	assert.Equal(t, start, f.e.Snapshot().LastInteraction)

	f.clock.Advance(5 * time.Second)
	for _, src := range []string{SourceIdleDrain, SourceIdleDecay, SourceRotBleed} {
		f.e.ModifyEntropy(-0.1, src)
	}
	assert.Equal(t, start, f.e.Snapshot().LastInteraction)

	f.e.TickEntropy(1)
	assert.Equal(t, f.now(), f.e.Snapshot().LastInteraction)
}

func TestModifyEntropy_IgnoredAfterRunEnds(t *testing.T) {
	f := newFixture(t)
	f.e.endRun(domain.StoneSleep, f.now())

	f.e.ModifyEntropy(40, "test")
	assert.Zero(t, f.e.Entropy())
}

func TestTier(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, domain.Dormant, f.e.Tier())

	f.e.ModifyEntropy(60, "test")
	assert.Equal(t, domain.Fever, f.e.Tier())
	assert.Equal(t, domain.Famine, TierOf(89.99))
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	f := newFixture(t)
	f.e.SpawnPersistentSeed(10, 10, domain.Ash)
	f.e.AddToHistory(HistoryEntry{ID: 1, Text: "line"})

	s := f.e.Snapshot()
	delete(s.PersistentSeeds, "seed-1")
	s.DomainAlignments[domain.Ash] = 99
	s.History[0].Text = "changed"

	again := f.e.Snapshot()
	assert.Contains(t, again.PersistentSeeds, "seed-1")
	assert.Zero(t, again.DomainAlignments[domain.Ash])
	assert.Equal(t, "line", again.History[0].Text)
}

func TestEngine_DefaultContent(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, story.FallbackStory().Title, f.e.Content().Story.Title)
}

package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/testutil"
)

// playSession drives a seeded engine through a fixed script of frames,
// clicks and feeds, and returns the final save and every event name.
func playSession(t *testing.T, seed uint64) (string, []string) {
	t.Helper()
	clock := testutil.NewManualClock()
	rec := &event.Recorder{}
	e := New(
		WithSeed(seed),
		WithClock(clock),
		WithIDs(testutil.NewSequentialIDs()),
		WithBinder(binder.New(rec, nil)),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	e.SetSurfaceSize(800, 600)

	for frame := range 3000 {
		now := clock.Advance(DefaultFrameInterval)
		if frame%25 == 0 {
			e.Click(400, 300, now)
		}
		if frame%10 == 0 {
			for _, id := range sortedKeys(e.Snapshot().PersistentSeeds) {
				e.FeedSeed(id, now)
			}
		}
		if frame%200 == 0 {
			for _, id := range sortedKeys(e.Snapshot().PersistentGods) {
				e.ClickPersistentGod(id, now)
			}
		}
		e.Step(now)

		got := e.Entropy()
		require.GreaterOrEqual(t, got, 0.0)
		require.LessOrEqual(t, got, 100.0)
	}
	return e.ExportSave(), rec.Names()
}

func TestStep_SameSeedSameRun(t *testing.T) {
	save1, events1 := playSession(t, 7)
	save2, events2 := playSession(t, 7)

	assert.Equal(t, save1, save2)
	assert.Equal(t, events1, events2)
	assert.NotEmpty(t, events1)
}

func TestStep_IdleDrain(t *testing.T) {
	f := newFixture(t)
	start := f.now()
	f.e.ModifyEntropy(5, "test")

	f.e.Step(start)
	f.e.Step(start.Add(500 * time.Millisecond))
	assert.Equal(t, 5.0, f.e.Entropy())

	f.e.Step(start.Add(time.Second))
	assert.Equal(t, 4.9, f.e.Entropy())
	assert.Equal(t, start, f.e.Snapshot().LastInteraction, "draining is not an interaction")
}

func TestStep_OmenAtHighEntropy(t *testing.T) {
	f := newFixture(t)
	start := f.now()
	f.e.ModifyEntropy(95, "test")

	f.e.Step(start)
	assert.Equal(t, 1, f.e.Snapshot().Stats.OmenCount)
	assert.Equal(t, 94.2, f.e.Entropy())

	f.e.Step(start.Add(time.Second))
	assert.Equal(t, 1, f.e.Snapshot().Stats.OmenCount, "omens cool down")
}

func TestStep_AwakeningOnBoundary(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand().WithFallback(0.0))
	start := f.now()
	f.e.state.PersistentSeeds["seed-1"] = Seed{
		ID: "seed-1", BornAt: start, State: domain.Mature, Food: 0.8, Maturity: 1,
	}

	f.e.Step(start)
	f.e.Step(start.Add(awakeningInterval - time.Millisecond))
	assert.Empty(t, f.e.Snapshot().PersistentGods)

	f.e.Step(start.Add(awakeningInterval))
	s := f.e.Snapshot()
	assert.Len(t, s.PersistentGods, 1)
	assert.Empty(t, s.PersistentSeeds)
}

func TestStep_RunsQueuedCommandsFirst(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.e.Submit(func(e *Engine) { e.ModifyEntropy(95, "test") }))
	assert.Equal(t, 1, f.e.QueueLen())

	f.e.Step(f.now())

	assert.Zero(t, f.e.QueueLen())
	assert.Equal(t, 1, f.e.Snapshot().Stats.OmenCount, "the omen check sees the queued change")
}

func TestStep_SeasonsAdvance(t *testing.T) {
	f := newFixture(t)
	start := f.now()
	f.e.state.PersistentGods["god-1"] = God{ID: "god-1", Domain: domain.Stone, CooldownUntil: start}

	f.e.Step(start)
	f.e.Step(start.Add(firstSeasonLength))
	assert.Equal(t, domain.Summer, f.e.Snapshot().Season)
}

func TestStep_NothingTicksAfterEnding(t *testing.T) {
	f := newFixture(t)
	start := f.now()
	f.e.ModifyEntropy(50, "test")
	f.e.endRun(domain.StoneSleep, start)

	f.e.Step(start)
	f.e.Step(start.Add(time.Hour))

	s := f.e.Snapshot()
	assert.Equal(t, 50.0, s.Entropy)
	assert.Equal(t, domain.Spring, s.Season)
}

func TestRun_ProcessesSubmittedCommands(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithFrameInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- f.e.Run(ctx) }()

	got := make(chan float64, 1)
	require.True(t, f.e.Submit(func(e *Engine) {
		e.ModifyEntropy(5, "test")
		got <- e.Entropy()
	}))

	select {
	case v := <-got:
		assert.Equal(t, 5.0, v)
	case <-time.After(2 * time.Second):
		t.Fatal("submitted command never ran")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, f.e.Submit(func(*Engine) {}), "submit after shutdown fails")
}

func TestRun_StopFlushes(t *testing.T) {
	mem := newMemPersister()
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithPersister(mem), WithFrameInterval(time.Hour))

	require.True(t, f.e.Submit(func(e *Engine) { e.ModifyEntropy(7, "test") }))
	f.e.Stop()

	errc := make(chan error, 1)
	go func() { errc <- f.e.Run(context.Background()) }()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	require.NotEmpty(t, mem.saves[domain.SlotA])
	assert.Equal(t, 7.0, f.e.Entropy())
}

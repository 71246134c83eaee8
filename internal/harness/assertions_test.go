package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/store"
)

func trace(names ...string) []TraceEvent {
	out := make([]TraceEvent, len(names))
	for i, n := range names {
		out[i] = TraceEvent{Seq: int64(i + 1), Event: n}
	}
	return out
}

func intPtr(n int) *int { return &n }

func TestAssertTraceContains(t *testing.T) {
	tr := trace("entropy.enter.40", "omen.trigger")

	assert.NoError(t, assertTraceContains(tr, Assertion{Event: "omen.trigger"}))

	err := assertTraceContains(tr, Assertion{Event: "entropy.seizure"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Equal(t, "not found in trace", ae.Actual)
	assert.Contains(t, err.Error(), "[2] step 0 omen.trigger")
}

func TestAssertTraceOrder(t *testing.T) {
	tr := trace("seed.spawn", "entropy.enter.40", "seed.feed", "seed.spawn")

	assert.NoError(t, assertTraceOrder(tr, Assertion{Events: []string{"seed.spawn", "seed.feed"}}))

	err := assertTraceOrder(tr, Assertion{Events: []string{"seed.feed", "seed.spawn"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed.feed (pos 3) should be before seed.spawn (pos 1)")

	err = assertTraceOrder(tr, Assertion{Events: []string{"seed.spawn", "god.awaken"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event: god.awaken")
}

func TestAssertTraceCount(t *testing.T) {
	tr := trace("omen.trigger", "entropy.exit.40", "omen.trigger")

	assert.NoError(t, assertTraceCount(tr, Assertion{Event: "omen.trigger", Count: intPtr(2)}))
	assert.NoError(t, assertTraceCount(tr, Assertion{Event: "entropy.seizure", Count: intPtr(0)}))

	err := assertTraceCount(tr, Assertion{Event: "omen.trigger", Count: intPtr(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	state := map[string]any{
		"entropy": 34.2,
		"season":  "SPRING",
		"runOver": false,
		"ending":  nil,
		"stats":   map[string]any{"awakened": 3.0},
	}

	assert.NoError(t, assertFinalState(state, Assertion{Expect: map[string]any{
		"entropy":        34.2,
		"season":         "SPRING",
		"runOver":        false,
		"ending":         nil,
		"stats.awakened": 3,
	}}))

	err := assertFinalState(state, Assertion{Expect: map[string]any{"stats.awakened": 4}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "stats.awakened" = 3`)

	err = assertFinalState(state, Assertion{Expect: map[string]any{"stats.starved": 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")

	err = assertFinalState(state, Assertion{Expect: map[string]any{"season.name": "x"}})
	assert.Error(t, err, "paths cannot descend into scalars")
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(1.0, 1))
	assert.True(t, valuesEqual(float64(7), int64(7)))
	assert.False(t, valuesEqual(1.0, "1"))
	assert.False(t, valuesEqual(nil, 0))
	assert.True(t, valuesEqual(nil, nil))
	assert.True(t, valuesEqual([]any{"a"}, []any{"a"}))
}

func TestAssertScoreRecorded(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.AppendScore(ctx, domain.SlotA, domain.StoneSleep, 180, at))
	require.NoError(t, st.AppendScore(ctx, domain.SlotB, domain.StoneSleep, 90, at))

	actx := &AssertionContext{Store: st, Ctx: ctx, Slot: domain.SlotA}
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertScoreRecorded, Ending: "StoneSleep"},
		{Type: AssertScoreRecorded, Ending: "GardenFamine", Count: intPtr(0)},
	}, actx)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertScoreRecorded, Ending: "StoneSleep", Count: intPtr(2)},
	}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "1 rows")
}

func TestEvaluateAssertions_NoStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertScoreRecorded, Ending: "StoneSleep"},
		{Type: "bogus"},
	}, nil)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "requires database context")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

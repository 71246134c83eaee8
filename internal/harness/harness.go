package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/store"
	"github.com/roach88/godseed/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with a manual clock and sequential ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.ManualClock
	logger *slog.Logger

	result *Result
	step   int
	seq    int64
}

// Notify records e in the trace.
//
// Implements event.Notifier.
func (h *Harness) Notify(e event.Event) {
	h.seq++
	h.result.Trace = append(h.result.Trace, TraceEvent{Seq: h.seq, Step: h.step, Event: e.Name()})
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database. Step outcome
// mismatches and failed assertions make the result fail; only setup
// problems (store, import) return an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store calls.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithNow(func() time.Time { return testutil.Epoch }))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	slot := domain.SlotA
	if scenario.Slot != "" {
		if slot, err = domain.ParseSlot(scenario.Slot); err != nil {
			return nil, err
		}
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewManualClock(),
		logger: slog.New(slog.DiscardHandler),
		result: NewResult(),
	}

	opts := []engine.Option{
		engine.WithClock(h.clock),
		engine.WithIDs(testutil.NewSequentialIDs()),
		engine.WithBinder(binder.New(h, nil, binder.WithLogger(h.logger))),
		engine.WithPersister(store.NewSlotSaver(st)),
		engine.WithLogger(h.logger),
		engine.WithSlot(slot),
	}
	if scenario.Seed != nil {
		opts = append(opts, engine.WithSeed(*scenario.Seed))
	} else {
		rnd := testutil.NewScriptedRand(scenario.Rand...)
		if scenario.RandFallback != nil {
			rnd.WithFallback(*scenario.RandFallback)
		}
		opts = append(opts, engine.WithRand(rnd))
	}
	h.engine = engine.New(opts...)

	if scenario.Save != "" {
		if err := h.engine.Restore([]byte(scenario.Save)); err != nil {
			return nil, fmt.Errorf("failed to import save: %w", err)
		}
	}

	for i, step := range scenario.Steps {
		h.step = i
		for range max(1, step.Repeat) {
			if err := h.execute(ctx, step); err != nil {
				h.result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Do, err))
			}
		}
	}

	if err := h.engine.Flush(ctx); err != nil {
		h.result.AddError(fmt.Sprintf("final flush: %v", err))
	}
	if err := json.Unmarshal([]byte(h.engine.ExportSave()), &h.result.State); err != nil {
		return nil, fmt.Errorf("failed to decode final state: %w", err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx, Slot: slot}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// execute runs one repetition of step.
func (h *Harness) execute(ctx context.Context, st Step) error {
	e := h.engine
	now := h.clock.Now()

	switch st.Do {
	case DoModify:
		source := st.Source
		if source == "" {
			source = engine.SourceManualTick
		}
		e.ModifyEntropy(st.Delta, source)
	case DoStep:
		for range max(1, st.Frames) {
			e.Step(h.clock.Advance(engine.DefaultFrameInterval))
		}
	case DoAdvance:
		e.Step(h.clock.Advance(time.Duration(st.Ms) * time.Millisecond))
	case DoClick:
		e.Click(st.X, st.Y, now)
	case DoSpawnSeed:
		e.SpawnPersistentSeed(st.X, st.Y, domain.Domain(st.Domain))
	case DoFeed:
		e.FeedSeed(st.Seed, now)
	case DoTickSeeds:
		e.TickPersistentSeeds(st.Dt, now)
	case DoAwaken:
		return checkOK(st, e.AttemptAwakening(now) != "")
	case DoClickGod:
		return checkOK(st, e.ClickPersistentGod(st.God, now))
	case DoChoose:
		return checkOK(st, e.Choose(st.Index, now))
	case DoFalseChoice:
		return checkOK(st, e.FalseChoice(now))
	case DoOmen:
		return checkOK(st, e.TriggerOmen())
	case DoCheckEndings:
		e.CheckEndings(now)
	case DoReset:
		e.ResetRun(st.Preserve)
	case DoFlush:
		return e.Flush(ctx)
	default:
		return fmt.Errorf("unknown operation %q", st.Do)
	}
	return nil
}

func checkOK(st Step, got bool) error {
	if st.OK != nil && *st.OK != got {
		return fmt.Errorf("expected ok=%v, got %v", *st.OK, got)
	}
	return nil
}

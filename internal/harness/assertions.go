package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s\n", ev.Seq, ev.Step, ev.Event)
		}
	}
	return buf.String()
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Event == a.Event {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s", a.Event),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the events first fire in the given order.
// Intervening events are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Event]; !seen && slices.Contains(a.Events, ev.Event) {
			positions[ev.Event] = i + 1
		}
	}

	for _, name := range a.Events {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Events),
				Actual:   fmt.Sprintf("missing event: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Events); i++ {
		prev, curr := a.Events[i-1], a.Events[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Event == a.Event {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks dotted paths ("stats.awakened", "ending.type")
// into the decoded save blob. Only the listed paths are checked.
func assertFinalState(state map[string]any, a Assertion) error {
	paths := make([]string, 0, len(a.Expect))
	for p := range a.Expect {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, path := range paths {
		want := a.Expect[path]
		got, ok := lookupPath(state, path)
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", path),
				Actual:   "field not present in final state",
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", path, want, want),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", path, got, got),
			}
		}
	}
	return nil
}

func lookupPath(state map[string]any, path string) (any, bool) {
	var cur any = state
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// valuesEqual compares a decoded JSON value with a YAML literal. Numbers
// compare by value regardless of their Go type.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && a == e
	}
	return reflect.DeepEqual(actual, expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func assertScoreRecorded(ctx context.Context, st *store.Store, slot domain.Slot, a Assertion) error {
	rows, err := st.Scores(ctx, slot, 0)
	if err != nil {
		return fmt.Errorf("read scores: %w", err)
	}
	want := 1
	if a.Count != nil {
		want = *a.Count
	}
	count := 0
	for _, r := range rows {
		if string(r.Ending) == a.Ending {
			count++
		}
	}
	if count != want {
		return &AssertionError{
			Type:     AssertScoreRecorded,
			Expected: fmt.Sprintf("%d %s rows in slot %s", want, a.Ending, slot),
			Actual:   fmt.Sprintf("%d rows", count),
		}
	}
	return nil
}

// AssertionContext provides store access for score_recorded assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	Slot  domain.Slot
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			if a.Count == nil {
				err = fmt.Errorf("assertion[%d]: trace_count requires count", i)
			} else {
				err = assertTraceCount(result.Trace, a)
			}
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		case AssertScoreRecorded:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: score_recorded requires database context", i)
			} else {
				err = assertScoreRecorded(actx.Ctx, actx.Store, actx.Slot, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

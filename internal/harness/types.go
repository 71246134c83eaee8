package harness

// TraceEvent is one binder emission.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Step  int    `json:"step"`
	Event string `json:"event"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every emitted event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final save blob decoded into a generic map, used by
	// final_state assertions.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns the event names of the trace in order.
func (r *Result) Events() []string {
	names := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		names[i] = ev.Event
	}
	return names
}

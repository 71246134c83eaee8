package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/godseed/internal/domain"
)

// Scenario is a scripted garden session with assertions over the emitted
// events and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed, when set, drives the engine from a PCG source instead of Rand.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Rand lists scripted draws in [0,1). After they run out every draw
	// returns RandFallback (default 0.5).
	Rand         []float64 `yaml:"rand,omitempty"`
	RandFallback *float64  `yaml:"rand_fallback,omitempty"`

	// Slot is the save slot the engine writes to. Defaults to A.
	Slot string `yaml:"slot,omitempty"`

	// Save is an optional save blob imported before the first step.
	Save string `yaml:"save,omitempty"`

	// Steps drive the engine in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation. Which fields apply depends on Do.
type Step struct {
	Do string `yaml:"do"`

	Delta  float64 `yaml:"delta,omitempty"`
	Source string  `yaml:"source,omitempty"`
	Frames int     `yaml:"frames,omitempty"`
	Ms     int     `yaml:"ms,omitempty"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Domain string  `yaml:"domain,omitempty"`
	Seed   string  `yaml:"seed,omitempty"`
	God    string  `yaml:"god,omitempty"`
	Dt     float64 `yaml:"dt,omitempty"`
	Index  int     `yaml:"index,omitempty"`

	// Preserve keeps the meta state on reset.
	Preserve bool `yaml:"preserve,omitempty"`

	// Repeat runs the step this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// OK, when set, is the expected outcome of steps that report one
	// (choose, false_choice, omen, awaken, click_god).
	OK *bool `yaml:"ok,omitempty"`
}

// Step operations.
const (
	DoModify       = "modify"
	DoStep         = "step"
	DoAdvance      = "advance"
	DoClick        = "click"
	DoSpawnSeed    = "spawn_seed"
	DoFeed         = "feed"
	DoTickSeeds    = "tick_seeds"
	DoAwaken       = "awaken"
	DoClickGod     = "click_god"
	DoChoose       = "choose"
	DoFalseChoice  = "false_choice"
	DoOmen         = "omen"
	DoCheckEndings = "check_endings"
	DoReset        = "reset"
	DoFlush        = "flush"
)

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	//   - "trace_contains": the event fired at least once
	//   - "trace_order": the events first fired in this order
	//   - "trace_count": the event fired exactly Count times
	//   - "final_state": dotted save-blob paths hold the expected values
	//   - "score_recorded": the store holds Count rows (default 1) for Ending
	Type string `yaml:"type"`

	Event  string         `yaml:"event,omitempty"`
	Events []string       `yaml:"events,omitempty"`
	Count  *int           `yaml:"count,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Ending string         `yaml:"ending,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertScoreRecorded = "score_recorded"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Slot != "" {
		if _, err := domain.ParseSlot(s.Slot); err != nil {
			return fmt.Errorf("slot: %w", err)
		}
	}
	for i, v := range s.Rand {
		if v < 0 || v >= 1 {
			return fmt.Errorf("rand[%d]: %v outside [0,1)", i, v)
		}
	}
	if f := s.RandFallback; f != nil && (*f < 0 || *f >= 1) {
		return fmt.Errorf("rand_fallback: %v outside [0,1)", *f)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	if st.Repeat < 0 {
		return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
	}
	switch st.Do {
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	case DoModify, DoClick, DoAwaken, DoChoose, DoFalseChoice, DoOmen,
		DoCheckEndings, DoReset, DoFlush:
	case DoStep:
		if st.Frames < 0 {
			return fmt.Errorf("steps[%d]: frames must be non-negative", index)
		}
	case DoAdvance:
		if st.Ms <= 0 {
			return fmt.Errorf("steps[%d]: ms must be positive for advance", index)
		}
	case DoSpawnSeed:
		if st.Domain != "" {
			if _, err := domain.ParseDomain(st.Domain); err != nil {
				return fmt.Errorf("steps[%d]: %w", index, err)
			}
		}
	case DoFeed:
		if st.Seed == "" {
			return fmt.Errorf("steps[%d]: seed is required for feed", index)
		}
	case DoClickGod:
		if st.God == "" {
			return fmt.Errorf("steps[%d]: god is required for click_god", index)
		}
	case DoTickSeeds:
		if st.Dt <= 0 {
			return fmt.Errorf("steps[%d]: dt must be positive for tick_seeds", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown operation %q", index, st.Do)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be set and non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertScoreRecorded:
		if a.Ending == "" {
			return fmt.Errorf("assertions[%d]: ending is required for score_recorded", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

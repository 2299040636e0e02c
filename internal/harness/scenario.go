package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted game.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is an optional CUE game definition path.
	// Relative paths are resolved against the scenario file location.
	Definition string `yaml:"definition,omitempty"`

	// Picks lists rule IDs in the order the engine draws them.
	// The list wraps around. Empty means a seeded random picker.
	Picks []string `yaml:"picks,omitempty"`

	// Seed drives the random picker when Picks is empty.
	Seed uint64 `yaml:"seed,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scripted action. Exactly one of Start, AdvanceMs, Sample or
// Expect is set. Frame may accompany Sample.
type Step struct {
	Start     bool               `yaml:"start,omitempty"`
	AdvanceMs int                `yaml:"advance_ms,omitempty"`
	Sample    map[string]float64 `yaml:"sample,omitempty"`
	Frame     string             `yaml:"frame,omitempty"`
	Expect    *Expect            `yaml:"expect,omitempty"`
}

// Expect is a subset match against the game as the player sees it.
// Only non-nil fields are checked.
type Expect struct {
	Active         *bool   `yaml:"active,omitempty"`
	Challenge      *string `yaml:"challenge,omitempty"` // rule ID, "" for none
	LivesLeft      *int    `yaml:"lives_left,omitempty"`
	CurrentPoints  *int    `yaml:"current_points,omitempty"`
	TotalShown     *int    `yaml:"total_shown,omitempty"`
	TotalSucceeded *int    `yaml:"total_succeeded,omitempty"`
	FramesSaved    *int    `yaml:"frames_saved,omitempty"`
	LivePoints     *int    `yaml:"live_points,omitempty"`
	GameOver       *bool   `yaml:"game_over,omitempty"`
	Slideshow      *bool   `yaml:"slideshow,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a transition with Kind (and Rule/Points if set) occurred
	// - "trace_order": Kinds occur in this order (first occurrences)
	// - "trace_count": Kind occurs exactly Count times
	// - "final_state": State matches at the end of the scenario
	Type string `yaml:"type"`

	Kind   string   `yaml:"kind,omitempty"`
	Rule   string   `yaml:"rule,omitempty"`
	Points *int     `yaml:"points,omitempty"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Count  int      `yaml:"count,omitempty"`
	State  *Expect  `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative definition path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario, resolving a relative
// definition path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Definition != "" && !filepath.IsAbs(scenario.Definition) && basePath != "" {
		scenario.Definition = filepath.Join(basePath, scenario.Definition)
	}
	if scenario.Definition != "" {
		if _, err := os.Stat(scenario.Definition); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: definition file not found: %s", scenario.Definition)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and valid.
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

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st Step) error {
	actions := 0
	if st.Start {
		actions++
	}
	if st.AdvanceMs != 0 {
		actions++
	}
	if st.Sample != nil {
		actions++
	}
	if st.Expect != nil {
		actions++
	}

	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one of start, advance_ms, sample, expect is required", index)
	}
	if st.AdvanceMs < 0 {
		return fmt.Errorf("steps[%d]: advance_ms must be positive", index)
	}
	if st.Frame != "" && st.Sample == nil {
		return fmt.Errorf("steps[%d]: frame is only valid with sample", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.State == nil {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

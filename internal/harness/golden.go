package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run. It holds only
// integers and strings so the JSON is stable byte for byte.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Final        FinalSummary `json:"final"`
}

// FinalSummary is the end-of-run state recorded in golden files.
type FinalSummary struct {
	SessionID      string `json:"session_id"`
	Active         bool   `json:"active"`
	LivesLeft      int    `json:"lives_left"`
	CurrentPoints  int    `json:"current_points"`
	TotalShown     int    `json:"total_shown"`
	TotalSucceeded int    `json:"total_succeeded"`
	FramesSaved    int    `json:"frames_saved"`
	FramesStored   int    `json:"frames_stored"`
}

// NewTraceSnapshot builds the golden form of a result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Final: FinalSummary{
			SessionID:      result.Final.SessionID,
			Active:         result.Final.Active,
			LivesLeft:      result.Final.LivesLeft,
			CurrentPoints:  result.Final.CurrentPoints,
			TotalShown:     result.Final.TotalShown,
			TotalSucceeded: result.Final.TotalSucceeded,
			FramesSaved:    result.Final.FramesSaved,
			FramesStored:   result.FramesStored,
		},
	}
}

// MarshalSnapshot renders a snapshot as indented JSON without a trailing newline.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace snapshot: %w", err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(NewTraceSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func boolp(v bool) *bool    { return &v }
func strp(v string) *string { return &v }

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_FirstChallengeGolden(t *testing.T) {
	scenario := loadTestScenario(t, "first_challenge")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 6, result.Final.CurrentPoints)
	assert.Equal(t, 1, result.FramesStored)
}

func TestRun_GameOver(t *testing.T) {
	result, err := Run(loadTestScenario(t, "game_over"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.False(t, result.Final.Active)
	assert.Equal(t, 0, result.Final.LivesLeft)
	assert.Equal(t, 0, result.FramesStored)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "slideshow", last.Kind)
	assert.Equal(t, int64(11200), last.AtMs)
}

func TestRun_CustomDefinition(t *testing.T) {
	result, err := Run(loadTestScenario(t, "sudden_death"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 16, result.Final.CurrentPoints)
	assert.Equal(t, 0, result.Final.LivesLeft)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectation",
		Picks:       []string{"smile"},
		Steps: []Step{
			{Start: true},
			{Expect: &Expect{CurrentPoints: intp(99), Active: boolp(true)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1]")
	assert.Contains(t, result.Errors[0], "current_points = 0, want 99")
}

func TestRun_AssertionFailureReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "assert_fail",
		Description: "missing transition",
		Picks:       []string{"smile"},
		Steps:       []Step{{Start: true}},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Kind: "succeeded"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
}

func TestRun_UnknownPick(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_pick",
		Description: "unknown rule",
		Picks:       []string{"wink"},
		Steps:       []Step{{Start: true}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule "wink"`)
}

func TestRun_SeededPickerDeterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "seeded",
		Description: "random picks with a fixed seed",
		Seed:        42,
		Steps: []Step{
			{Start: true},
			{AdvanceMs: 1300},
			{Sample: map[string]float64{}},
			{AdvanceMs: 2100},
			{Sample: map[string]float64{}},
			{AdvanceMs: 1300},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, 2, first.Final.TotalShown)
}

func TestRun_StartWhileActiveIgnored(t *testing.T) {
	scenario := &Scenario{
		Name:        "double_start",
		Description: "second start does not reset the session",
		Picks:       []string{"jaw-open"},
		Steps: []Step{
			{Start: true},
			{AdvanceMs: 1300},
			{Sample: map[string]float64{"jawOpen": 0.9}},
			{Start: true},
			{Expect: &Expect{CurrentPoints: intp(11), Challenge: strp("")}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "started", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "scenario-1", result.Final.SessionID)
}

func TestRun_RestartAfterGameOver(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "restart",
		Description: "a new game after game over gets a fresh session",
		Picks:       []string{"jaw-open"},
		Steps: append(missThree(),
			Step{Start: true},
			Step{Expect: &Expect{Active: boolp(true), LivesLeft: intp(3), TotalShown: intp(0), GameOver: boolp(false)}},
			// The old game-over timer was cancelled by the restart.
			Step{AdvanceMs: 1300},
			Step{Expect: &Expect{Slideshow: boolp(false), Challenge: strp("jaw-open")}},
		),
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "slideshow", Count: 0},
			{Type: AssertTraceCount, Kind: "started", Count: 2},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "scenario-2", result.Final.SessionID)
}

func missThree() []Step {
	steps := []Step{{Start: true}}
	for i := 0; i < 3; i++ {
		steps = append(steps,
			Step{AdvanceMs: 1300},
			Step{AdvanceMs: 2100},
			Step{Sample: map[string]float64{}},
		)
	}
	return steps
}

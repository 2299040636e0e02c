package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/faceoff/internal/session"
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
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %6dms %-10s", i+1, event.AtMs, event.Kind)
			if event.Rule != "" {
				fmt.Fprintf(&buf, " %s", event.Rule)
			}
			if event.Points > 0 {
				fmt.Fprintf(&buf, " +%d", event.Points)
			}
			fmt.Fprintf(&buf, " (lives %d, points %d)\n", event.LivesLeft, event.CurrentPoints)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
// final is the snapshot at the end of the scenario.
func EvaluateAssertions(result *Result, assertions []Assertion, final session.Snapshot) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result.Trace, a, final)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks the trace has a transition of the given kind,
// matching rule and points when those are set.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Kind != a.Kind {
			continue
		}
		if a.Rule != "" && event.Rule != a.Rule {
			continue
		}
		if a.Points != nil && event.Points != *a.Points {
			continue
		}
		return nil
	}

	expected := a.Kind
	if a.Rule != "" {
		expected += " " + a.Rule
	}
	if a.Points != nil {
		expected += fmt.Sprintf(" with %d points", *a.Points)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that kinds first occur in the given order.
// Kinds don't need to be consecutive (intervening transitions are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Kind] == 0 {
			positions[event.Kind] = i + 1 // 1-indexed for readability
		}
	}

	for _, kind := range a.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", a.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the kind appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind == a.Kind {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the end-of-scenario view (subset semantics).
func assertFinalState(trace []TraceEvent, a Assertion, final session.Snapshot) error {
	mismatches := checkExpect(*a.State, final)
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: "state to match",
		Actual:   strings.Join(mismatches, "; "),
		Trace:    trace,
	}
}

// checkExpect compares the set fields of e with snap and describes each
// mismatch.
func checkExpect(e Expect, snap session.Snapshot) []string {
	var out []string

	checkBool := func(name string, want *bool, got bool) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s = %v, want %v", name, got, *want))
		}
	}
	checkInt := func(name string, want *int, got int) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s = %d, want %d", name, got, *want))
		}
	}

	checkBool("active", e.Active, snap.Active)
	if e.Challenge != nil && *e.Challenge != snap.ChallengeID {
		out = append(out, fmt.Sprintf("challenge = %q, want %q", snap.ChallengeID, *e.Challenge))
	}
	checkInt("lives_left", e.LivesLeft, snap.LivesLeft)
	checkInt("current_points", e.CurrentPoints, snap.CurrentPoints)
	checkInt("total_shown", e.TotalShown, snap.TotalShown)
	checkInt("total_succeeded", e.TotalSucceeded, snap.TotalSucceeded)
	checkInt("frames_saved", e.FramesSaved, snap.FramesSaved)
	checkInt("live_points", e.LivePoints, snap.LiveEstimatedPoints)
	checkBool("game_over", e.GameOver, snap.GameOver)
	checkBool("slideshow", e.Slideshow, snap.Slideshow)

	return out
}

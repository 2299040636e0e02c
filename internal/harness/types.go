package harness

import (
	"github.com/roach88/faceoff/internal/session"
	"github.com/roach88/faceoff/internal/testutil"
)

// TraceEvent is one session transition, timed relative to the scenario start.
type TraceEvent struct {
	Kind          string `json:"kind"`
	AtMs          int64  `json:"at_ms"`
	Ordinal       int    `json:"ordinal,omitempty"`
	Rule          string `json:"rule,omitempty"`
	Points        int    `json:"points,omitempty"`
	LivesLeft     int    `json:"lives_left"`
	CurrentPoints int    `json:"current_points"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every transition in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the session state after the last step.
	Final session.State `json:"final"`

	// FramesStored is how many frames reached the store.
	FramesStored int `json:"frames_stored"`

	// Digest fingerprints the trace (see TraceDigest).
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Record appends a session event to the trace. Used as a session.Observer.
func (r *Result) Record(ev session.Event) {
	r.Trace = append(r.Trace, TraceEvent{
		Kind:          string(ev.Kind),
		AtMs:          ev.At.Sub(testutil.Epoch).Milliseconds(),
		Ordinal:       ev.Ordinal,
		Rule:          ev.RuleID,
		Points:        ev.Points,
		LivesLeft:     ev.LivesLeft,
		CurrentPoints: ev.CurrentPoints,
	})
}

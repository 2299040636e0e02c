// Package challenge implements the per-challenge state machine: which
// expression is shown, how long the player has, and how many points an
// on-time success is worth.
//
// STATES:
//
//	Idle ──Start──▶ Paused ──Activate──▶ Active ──Tick──▶ Paused
//	  ▲                                     │
//	  └───────────────Stop──────────────────┘
//
// Expired and Succeeded are Tick outcomes, not held states. The caller
// (session.Controller) consumes them immediately and schedules the next
// activation.
//
// The engine has no timers and no locks. Time is always passed in, and all
// methods must be called from a single goroutine.
package challenge

import (
	"log/slog"
	"math"
	"time"

	"github.com/roach88/faceoff/internal/difficulty"
	"github.com/roach88/faceoff/internal/expression"
)

// State is the engine's lifecycle state.
type State int

const (
	// StateIdle means no session is running.
	StateIdle State = iota
	// StatePaused means a session is running between challenges.
	StatePaused
	// StateActive means a challenge is in flight.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Challenge is the expression currently in flight.
type Challenge struct {
	Rule expression.Rule

	// ShownAt is when the challenge became active.
	ShownAt time.Time

	// Stage is frozen at show time; later stage changes never alter it.
	Stage difficulty.Stage

	// Ordinal is the 1-based position of this challenge in the session.
	Ordinal int
}

// Engine runs one challenge at a time.
type Engine struct {
	catalog *expression.Catalog
	curve   difficulty.Curve
	picker  Picker

	state      State
	current    *Challenge
	totalShown int
}

// New creates an idle engine. If picker is nil, rules are drawn with
// NewRandomPicker(0).
func New(catalog *expression.Catalog, curve difficulty.Curve, picker Picker) *Engine {
	if picker == nil {
		picker = NewRandomPicker(0)
	}
	return &Engine{
		catalog: catalog,
		curve:   curve,
		picker:  picker,
		state:   StateIdle,
	}
}

// Start moves Idle to Paused and resets counters.
// Calling Start on a running engine restarts it.
func (e *Engine) Start() {
	e.state = StatePaused
	e.current = nil
	e.totalShown = 0
}

// Stop returns the engine to Idle and drops any in-flight challenge.
func (e *Engine) Stop() {
	e.state = StateIdle
	e.current = nil
}

// PauseDuration returns the pause to wait before the next activation,
// taken from the stage the next challenge will use.
func (e *Engine) PauseDuration() time.Duration {
	return e.curve.ParametersFor(e.totalShown).Pause
}

// Activate moves Paused to Active with a freshly drawn rule.
//
// The rule is drawn uniformly with replacement, so the same expression may
// repeat back to back. The stage is frozen from the count of challenges
// shown before this one. Returns false (and does nothing) outside Paused.
func (e *Engine) Activate(now time.Time) (Challenge, bool) {
	if e.state != StatePaused {
		slog.Debug("activate ignored", "state", e.state)
		return Challenge{}, false
	}

	rule := e.catalog.At(e.picker.Pick(e.catalog.Len()))
	stage := e.curve.ParametersFor(e.totalShown)
	e.totalShown++

	e.current = &Challenge{
		Rule:    rule,
		ShownAt: now,
		Stage:   stage,
		Ordinal: e.totalShown,
	}
	e.state = StateActive

	slog.Debug("challenge shown",
		"rule", rule.ID,
		"ordinal", e.totalShown,
		"budget", stage.TimeBudget,
		"max_points", stage.MaxPoints,
	)

	return *e.current, true
}

// Tick evaluates one signal sample against the in-flight challenge.
//
// Expiry is checked before the match, so a matching signal that arrives
// after the budget ran out is still a failure. A sample captured before the
// challenge was shown is never matched.
func (e *Engine) Tick(signal expression.Signal, now time.Time) TickResult {
	if e.state != StateActive || e.current == nil {
		return TickResult{Outcome: OutcomeIgnored}
	}

	c := *e.current
	if now.Before(c.ShownAt) {
		slog.Debug("sample predates challenge", "rule", c.Rule.ID, "early", c.ShownAt.Sub(now))
		return TickResult{
			Outcome:      OutcomePending,
			Challenge:    c,
			FractionLeft: 1,
			LivePoints:   ComputeLivePoints(1, c.Stage.MaxPoints),
		}
	}

	fraction := FractionLeft(c.ShownAt, c.Stage.TimeBudget, now)

	if fraction < 0 {
		e.finish()
		return TickResult{
			Outcome:      OutcomeExpired,
			Challenge:    c,
			FractionLeft: fraction,
		}
	}

	live := ComputeLivePoints(fraction, c.Stage.MaxPoints)

	if e.catalog.Satisfied(c.Rule, signal) {
		e.finish()
		return TickResult{
			Outcome:       OutcomeSucceeded,
			Challenge:     c,
			FractionLeft:  fraction,
			LivePoints:    live,
			PointsAwarded: live,
		}
	}

	return TickResult{
		Outcome:      OutcomePending,
		Challenge:    c,
		FractionLeft: fraction,
		LivePoints:   live,
	}
}

// Progress reports the time fraction left and live points of the in-flight
// challenge without evaluating a signal. ok is false when nothing is active.
func (e *Engine) Progress(now time.Time) (fraction float64, livePoints int, ok bool) {
	if e.state != StateActive || e.current == nil {
		return 0, 0, false
	}
	fraction = min(FractionLeft(e.current.ShownAt, e.current.Stage.TimeBudget, now), 1)
	if fraction < 0 {
		return fraction, 0, true
	}
	return fraction, ComputeLivePoints(fraction, e.current.Stage.MaxPoints), true
}

func (e *Engine) finish() {
	e.current = nil
	e.state = StatePaused
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Current returns the in-flight challenge, if any.
func (e *Engine) Current() (Challenge, bool) {
	if e.current == nil {
		return Challenge{}, false
	}
	return *e.current, true
}

// TotalShown returns how many challenges were activated since Start.
func (e *Engine) TotalShown() int {
	return e.totalShown
}

// Catalog returns the rule catalog in use.
func (e *Engine) Catalog() *expression.Catalog {
	return e.catalog
}

// FractionLeft returns 1 - elapsed/budget. Negative once the budget is spent.
func FractionLeft(shownAt time.Time, budget time.Duration, now time.Time) float64 {
	elapsed := now.Sub(shownAt)
	return 1 - elapsed.Seconds()/budget.Seconds()
}

// ComputeLivePoints returns floor(maxPoints*fractionLeft)+1, never below 0.
// A success at the last instant still earns 1 point.
func ComputeLivePoints(fractionLeft float64, maxPoints int) int {
	points := int(math.Floor(float64(maxPoints)*fractionLeft)) + 1
	if points < 0 {
		return 0
	}
	return points
}

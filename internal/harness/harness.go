package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/faceoff/internal/challenge"
	"github.com/roach88/faceoff/internal/compiler"
	"github.com/roach88/faceoff/internal/engine"
	"github.com/roach88/faceoff/internal/session"
	"github.com/roach88/faceoff/internal/store"
	"github.com/roach88/faceoff/internal/testutil"
)

// SessionIDPrefix prefixes the deterministic session IDs of a scenario run.
const SessionIDPrefix = "scenario"

// Harness holds the wiring of one scenario run.
type Harness struct {
	clock    *testutil.ManualClock
	loop     *engine.Loop
	ctrl     *session.Controller
	recorder *session.Recorder
	archiver *store.Archiver
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Compile the game definition (built-in unless the scenario names one)
// 2. Wire loop, controller and archiver on a manual clock
// 3. Execute steps, draining the loop after each one
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	game, err := loadGame(scenario)
	if err != nil {
		return nil, err
	}

	picker, err := newPicker(scenario, game)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := NewResult()
	h := newHarness(game, picker, st, result)

	for i, step := range scenario.Steps {
		if err := h.execute(i, step, result); err != nil {
			h.archiver.Close()
			return nil, err
		}
	}

	// Flush pending frame writes before counting them.
	h.archiver.Close()

	result.Final = h.ctrl.State()
	if result.Final.SessionID != "" {
		n, err := st.FrameCount(context.Background(), result.Final.SessionID)
		if err != nil {
			return nil, fmt.Errorf("count stored frames: %w", err)
		}
		result.FramesStored = n
	}

	result.Digest, err = TraceDigest(result.Trace)
	if err != nil {
		return nil, err
	}

	final := h.view()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, final) {
		result.AddError(msg)
	}

	return result, nil
}

func loadGame(s *Scenario) (*compiler.Game, error) {
	if s.Definition == "" {
		game, err := compiler.Default()
		if err != nil {
			return nil, fmt.Errorf("compile default game: %w", err)
		}
		return game, nil
	}
	game, err := compiler.LoadFile(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("load game definition: %w", err)
	}
	return game, nil
}

func newPicker(s *Scenario, game *compiler.Game) (challenge.Picker, error) {
	if len(s.Picks) == 0 {
		seed := s.Seed
		if seed == 0 {
			seed = 1
		}
		return challenge.NewRandomPicker(seed), nil
	}

	indices := make([]int, len(s.Picks))
	for i, id := range s.Picks {
		found := -1
		for j := 0; j < game.Catalog.Len(); j++ {
			if game.Catalog.At(j).ID == id {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("picks[%d]: unknown rule %q", i, id)
		}
		indices[i] = found
	}
	return testutil.NewScriptedPicker(indices...), nil
}

func newHarness(game *compiler.Game, picker challenge.Picker, st *store.Store, result *Result) *Harness {
	clock := testutil.NewManualClock()
	loop := engine.New(clock)
	recorder := &session.Recorder{}
	archiver := store.NewArchiver(st, store.WithRotation(game.Rules.RotateFrames))

	eng := challenge.New(game.Catalog, game.Curve, picker)
	ctrl := session.NewController(eng,
		session.WithScheduler(loop),
		session.WithSink(recorder),
		session.WithArchive(archiver),
		session.WithLog(archiver),
		session.WithIDGenerator(testutil.NewSequentialIDGenerator(SessionIDPrefix)),
		session.WithObserver(result.Record),
		session.WithLives(game.Rules.Lives),
		session.WithGameOverDelay(game.Rules.GameOverDelay),
	)

	return &Harness{
		clock:    clock,
		loop:     loop,
		ctrl:     ctrl,
		recorder: recorder,
		archiver: archiver,
	}
}

// execute runs one step. Expectation mismatches are recorded on the
// result; only wiring failures are returned.
func (h *Harness) execute(index int, step Step, result *Result) error {
	switch {
	case step.Start:
		if !h.loop.RequestStart() {
			return fmt.Errorf("steps[%d]: loop closed", index)
		}
	case step.AdvanceMs > 0:
		h.clock.Advance(time.Duration(step.AdvanceMs) * time.Millisecond)
	case step.Sample != nil:
		sample := session.Sample{Signal: step.Sample}
		if step.Frame != "" {
			sample.Frame = []byte(step.Frame)
		}
		if !h.loop.SubmitSample(sample) {
			return fmt.Errorf("steps[%d]: loop closed", index)
		}
	case step.Expect != nil:
		for _, msg := range checkExpect(*step.Expect, h.view()) {
			result.AddError(fmt.Sprintf("steps[%d]: %s", index, msg))
		}
		return nil
	}

	h.loop.Drain(h.ctrl)
	return nil
}

// view is the game as the player currently sees it: the live snapshot,
// with the game-over and slideshow flags of the last rendered frame.
func (h *Harness) view() session.Snapshot {
	snap := h.ctrl.Snapshot(h.clock.Now())
	if last, ok := h.recorder.Last(); ok && !snap.Active {
		snap.GameOver = last.GameOver
		snap.Slideshow = last.Slideshow
	}
	return snap
}

// Package session owns a full game: lives, score, counters and the
// effects of each challenge outcome.
//
// The Controller is single-writer. StartGame, OnSample, OnEngineEvent and
// OnTimer must be called from one goroutine (engine.Loop provides this).
// Timers are tagged with a session generation so a callback armed for an
// earlier session is a no-op.
package session

import (
	"log/slog"
	"time"

	"github.com/roach88/faceoff/internal/challenge"
)

// Controller drives a challenge.Engine across a whole game.
type Controller struct {
	engine   *challenge.Engine
	sched    Scheduler
	sink     Sink
	archive  Archive
	log      Log
	ids      IDGenerator
	observer Observer

	lives         int
	gameOverDelay time.Duration

	state     State
	lastFrame []byte
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler sets the timer scheduler. Default: timers never fire.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithSink sets the presentation sink.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithArchive sets the frame archive.
func WithArchive(a Archive) Option {
	return func(c *Controller) { c.archive = a }
}

// WithLog sets the session log.
func WithLog(l Log) Option {
	return func(c *Controller) { c.log = l }
}

// WithIDGenerator overrides session ID generation (tests use fixed IDs).
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLives sets the starting number of lives (default 3).
func WithLives(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.lives = n
		}
	}
}

// WithGameOverDelay sets the delay before the slideshow snapshot.
func WithGameOverDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.gameOverDelay = d
		}
	}
}

// NewController creates an idle controller around eng.
func NewController(eng *challenge.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:        eng,
		sched:         nopScheduler{},
		sink:          nopSink{},
		archive:       nopArchive{},
		log:           nopLog{},
		ids:           UUIDv7Generator{},
		lives:         DefaultLives,
		gameOverDelay: DefaultGameOverDelay,
		state:         State{LivesLeft: DefaultLives},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.LivesLeft = c.lives
	return c
}

// StartGame begins a new session. Returns false (and does nothing) while a
// session is already active, so a double tap on the start button is harmless.
func (c *Controller) StartGame(now time.Time) bool {
	if c.state.Active {
		slog.Debug("start ignored: session already active", "session_id", c.state.SessionID)
		return false
	}

	// Invalidate timers from the previous session (e.g. a pending slideshow).
	c.sched.CancelAll()

	c.state = State{
		SessionID:  c.ids.Generate(),
		Generation: c.state.Generation + 1,
		LivesLeft:  c.lives,
		Active:     true,
		StartedAt:  now,
	}
	c.lastFrame = nil

	c.engine.Start()
	c.log.SessionStarted(c.state)

	slog.Info("session started",
		"session_id", c.state.SessionID,
		"generation", c.state.Generation,
		"lives", c.lives,
	)

	c.emit(Event{Kind: EventStarted, At: now})
	c.scheduleNext()
	c.render(now, false, false)
	return true
}

// OnSample ticks the engine with one sample and applies the outcome.
// Samples arriving with no active session are dropped.
func (c *Controller) OnSample(s Sample) {
	if !c.state.Active {
		return
	}
	if len(s.Frame) > 0 {
		c.lastFrame = s.Frame
	}

	res := c.engine.Tick(s.Signal, s.At)
	if res.Transition() {
		c.OnEngineEvent(res, s.At)
		return
	}
	c.render(s.At, false, false)
}

// OnEngineEvent applies a Succeeded or Expired outcome to the session.
// Anything else, or any event while the session is not active, is ignored.
func (c *Controller) OnEngineEvent(res challenge.TickResult, now time.Time) {
	if !c.state.Active {
		slog.Debug("engine event ignored: no active session", "outcome", res.Outcome)
		return
	}

	switch res.Outcome {
	case challenge.OutcomeSucceeded:
		c.succeeded(res, now)
	case challenge.OutcomeExpired:
		c.expired(res, now)
	default:
		slog.Debug("engine event ignored", "outcome", res.Outcome)
	}
}

func (c *Controller) succeeded(res challenge.TickResult, now time.Time) {
	c.state.CurrentPoints += res.PointsAwarded
	c.state.TotalSucceeded++

	slog.Debug("challenge succeeded",
		"session_id", c.state.SessionID,
		"rule", res.Challenge.Rule.ID,
		"points", res.PointsAwarded,
		"total", c.state.CurrentPoints,
	)

	c.saveFrame()
	c.emit(Event{
		Kind:    EventSucceeded,
		At:      now,
		Ordinal: res.Challenge.Ordinal,
		RuleID:  res.Challenge.Rule.ID,
		Points:  res.PointsAwarded,
	})
	c.scheduleNext()
	c.render(now, false, false)
}

func (c *Controller) expired(res challenge.TickResult, now time.Time) {
	c.state.LivesLeft--

	slog.Debug("challenge expired",
		"session_id", c.state.SessionID,
		"rule", res.Challenge.Rule.ID,
		"lives_left", c.state.LivesLeft,
	)

	c.emit(Event{
		Kind:    EventExpired,
		At:      now,
		Ordinal: res.Challenge.Ordinal,
		RuleID:  res.Challenge.Rule.ID,
	})

	if c.state.LivesLeft > 0 {
		c.scheduleNext()
		c.render(now, false, false)
		return
	}

	c.state.LivesLeft = 0
	c.state.Active = false
	c.state.EndedAt = now
	c.engine.Stop()
	c.sched.CancelAll()
	c.log.SessionEnded(c.state)

	slog.Info("game over",
		"session_id", c.state.SessionID,
		"points", c.state.CurrentPoints,
		"shown", c.state.TotalShown,
		"succeeded", c.state.TotalSucceeded,
	)

	c.emit(Event{Kind: EventGameOver, At: now})
	c.sched.After(c.gameOverDelay, Timer{Kind: TimerGameOver, Generation: c.state.Generation})
	c.render(now, true, false)
}

// Abandon ends the active session without a game over, for when input
// stops mid-game. The final state goes to the session log; no slideshow
// follows. Returns false when no session is active.
func (c *Controller) Abandon(now time.Time) bool {
	if !c.state.Active {
		return false
	}

	c.state.Active = false
	c.state.Abandoned = true
	c.state.EndedAt = now
	c.engine.Stop()
	c.sched.CancelAll()
	c.log.SessionEnded(c.state)

	slog.Info("session abandoned",
		"session_id", c.state.SessionID,
		"points", c.state.CurrentPoints,
		"lives_left", c.state.LivesLeft,
	)

	c.emit(Event{Kind: EventAbandoned, At: now})
	return true
}

// OnTimer handles a fired timer. Returns false when the timer was stale
// (armed by an earlier session) or no longer applicable.
func (c *Controller) OnTimer(t Timer, now time.Time) bool {
	if t.Generation != c.state.Generation {
		slog.Debug("stale timer discarded",
			"kind", t.Kind,
			"timer_generation", t.Generation,
			"generation", c.state.Generation,
		)
		return false
	}

	switch t.Kind {
	case TimerActivate:
		if !c.state.Active {
			return false
		}
		ch, ok := c.engine.Activate(now)
		if !ok {
			return false
		}
		// Only frames seen during this challenge may be saved for it.
		c.lastFrame = nil
		c.state.TotalShown = c.engine.TotalShown()
		c.emit(Event{Kind: EventShown, At: now, Ordinal: ch.Ordinal, RuleID: ch.Rule.ID})
		c.render(now, false, false)
		return true

	case TimerGameOver:
		if c.state.Active {
			return false
		}
		c.emit(Event{Kind: EventSlideshow, At: now})
		c.render(now, true, true)
		return true

	default:
		slog.Warn("unknown timer kind", "kind", int(t.Kind))
		return false
	}
}

// saveFrame hands the latest frame to the archive and forgets it, so a
// frame is saved at most once. The index is taken and advanced before the
// save starts, so concurrent saves never share one.
func (c *Controller) saveFrame() {
	if len(c.lastFrame) == 0 {
		return
	}
	index := c.state.FramesSaved
	c.state.FramesSaved++
	c.archive.Save(c.state.SessionID, index, c.lastFrame)
	c.lastFrame = nil
}

func (c *Controller) scheduleNext() {
	c.sched.After(c.engine.PauseDuration(), Timer{Kind: TimerActivate, Generation: c.state.Generation})
}

func (c *Controller) emit(ev Event) {
	if c.observer == nil {
		return
	}
	ev.SessionID = c.state.SessionID
	ev.LivesLeft = c.state.LivesLeft
	ev.CurrentPoints = c.state.CurrentPoints
	c.observer(ev)
}

func (c *Controller) render(now time.Time, gameOver, slideshow bool) {
	snap := c.snapshot(now)
	snap.GameOver = gameOver
	snap.Slideshow = slideshow
	c.sink.Render(snap)
}

// Snapshot returns the presentation view at now.
func (c *Controller) Snapshot(now time.Time) Snapshot {
	return c.snapshot(now)
}

func (c *Controller) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Active:         c.state.Active,
		LivesLeft:      c.state.LivesLeft,
		CurrentPoints:  c.state.CurrentPoints,
		TotalShown:     c.state.TotalShown,
		TotalSucceeded: c.state.TotalSucceeded,
		SessionID:      c.state.SessionID,
		FramesSaved:    c.state.FramesSaved,
	}
	if !c.state.Active {
		return snap
	}

	ch, ok := c.engine.Current()
	if !ok {
		// Between challenges the bar shows full.
		snap.FractionTimeLeft = 1
		return snap
	}

	name := ch.Rule.DisplayName
	snap.ChallengeName = &name
	snap.ChallengeID = ch.Rule.ID

	fraction, live, _ := c.engine.Progress(now)
	if fraction < 0 {
		fraction = 0
	}
	snap.FractionTimeLeft = fraction
	snap.LiveEstimatedPoints = live
	return snap
}

// State returns a copy of the session state.
func (c *Controller) State() State {
	return c.state
}

// Engine returns the underlying challenge engine.
func (c *Controller) Engine() *challenge.Engine {
	return c.engine
}

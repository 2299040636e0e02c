package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/faceoff/internal/session"
)

// Handler consumes events on the loop goroutine.
// Implemented by *session.Controller.
type Handler interface {
	StartGame(now time.Time) bool
	OnSample(s session.Sample)
	OnTimer(t session.Timer, now time.Time) bool
}

// Loop is the single-writer game loop.
//
// Thread-safety model:
//   - SubmitSample(), RequestStart(): safe from any goroutine
//   - After(), CancelAll(): safe from any goroutine (normally called by the
//     Handler on the loop goroutine)
//   - Run() / Drain(): must be called from exactly one goroutine
type Loop struct {
	clock Clock
	seq   *Sequencer
	queue *eventQueue

	mu        sync.Mutex
	timers    map[int64]func() bool
	nextTimer int64
}

// New creates a loop on the given clock. A nil clock means SystemClock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{
		clock:  clock,
		seq:    NewSequencer(),
		queue:  newEventQueue(),
		timers: make(map[int64]func() bool),
	}
}

// SubmitSample enqueues a face-tracker sample. A zero At is stamped with
// the current clock time. Returns false once the loop has stopped.
func (l *Loop) SubmitSample(s session.Sample) bool {
	now := l.clock.Now()
	if s.At.IsZero() {
		s.At = now
	}
	return l.queue.Enqueue(Event{
		Type:   EventTypeSample,
		Seq:    l.seq.Next(),
		At:     now,
		Sample: &s,
	})
}

// RequestStart enqueues the start-game command.
func (l *Loop) RequestStart() bool {
	return l.queue.Enqueue(Event{
		Type: EventTypeStartGame,
		Seq:  l.seq.Next(),
		At:   l.clock.Now(),
	})
}

// After implements session.Scheduler. When the timer fires it is enqueued
// like any other event, so the Handler sees it on the loop goroutine.
func (l *Loop) After(d time.Duration, t session.Timer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextTimer++
	id := l.nextTimer

	// Held across AfterFunc so a fast-firing timer cannot delete its
	// entry before it is stored.
	l.timers[id] = l.clock.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()

		fired := t
		if !l.queue.Enqueue(Event{
			Type:  EventTypeTimer,
			Seq:   l.seq.Next(),
			At:    l.clock.Now(),
			Timer: &fired,
		}) {
			slog.Debug("timer fired after loop stopped", "kind", fired.Kind)
		}
	})

	slog.Debug("timer armed", "kind", t.Kind, "generation", t.Generation, "delay", d)
}

// CancelAll implements session.Scheduler: stops every armed timer.
func (l *Loop) CancelAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, stop := range l.timers {
		stop()
		delete(l.timers, id)
	}
}

// PendingTimers returns the number of armed timers.
func (l *Loop) PendingTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// QueueLen returns the number of events waiting to be processed.
func (l *Loop) QueueLen() int {
	return l.queue.Len()
}

// Sequencer returns the loop's logical sequencer.
func (l *Loop) Sequencer() *Sequencer {
	return l.seq
}

// Run processes events until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: A malformed event is logged and skipped; the loop keeps
// running. Nothing a producer sends can terminate the game.
func (l *Loop) Run(ctx context.Context, h Handler) error {
	slog.Info("game loop starting")

	for {
		event, ok := l.queue.TryDequeue()
		if ok {
			if err := l.processEvent(h, event); err != nil {
				logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("game loop stopping: context cancelled")
			l.CancelAll()
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which makes this case fire immediately.
			if l.queue.Len() == 0 && l.queue.Closed() {
				slog.Info("game loop stopping: queue closed")
				l.CancelAll()
				return nil
			}
		}
	}
}

// Drain processes every queued event on the calling goroutine and returns
// how many were handled. Used by the scenario harness to step the loop
// deterministically instead of running it.
func (l *Loop) Drain(h Handler) int {
	n := 0
	for {
		event, ok := l.queue.TryDequeue()
		if !ok {
			return n
		}
		if err := l.processEvent(h, event); err != nil {
			logEventError(event, err)
		}
		n++
	}
}

// Stop closes the queue; Run returns once it has drained.
func (l *Loop) Stop() {
	l.queue.Close()
}

// processEvent routes an event to the handler.
// CRITICAL: Called only from the Run/Drain goroutine.
func (l *Loop) processEvent(h Handler, event Event) error {
	switch event.Type {
	case EventTypeSample:
		if event.Sample == nil {
			return fmt.Errorf("sample event missing sample data")
		}
		h.OnSample(*event.Sample)
		return nil

	case EventTypeStartGame:
		if !h.StartGame(event.At) {
			slog.Debug("start command ignored", "seq", event.Seq)
		}
		return nil

	case EventTypeTimer:
		if event.Timer == nil {
			return fmt.Errorf("timer event missing timer data")
		}
		h.OnTimer(*event.Timer, event.At)
		return nil

	default:
		return fmt.Errorf("unknown event type: %d", event.Type)
	}
}

// logEventError logs an event processing failure with full context.
func logEventError(event Event, err error) {
	switch event.Type {
	case EventTypeTimer:
		if event.Timer != nil {
			slog.Error("timer processing failed",
				"error", err,
				"seq", event.Seq,
				"kind", event.Timer.Kind,
				"generation", event.Timer.Generation,
			)
			return
		}
	case EventTypeSample:
		if event.Sample != nil {
			slog.Error("sample processing failed",
				"error", err,
				"seq", event.Seq,
				"at", event.Sample.At,
				"channels", len(event.Sample.Signal),
			)
			return
		}
	}
	slog.Error("event processing failed",
		"error", err,
		"seq", event.Seq,
		"event_type", event.Type,
	)
}

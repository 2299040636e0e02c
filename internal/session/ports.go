package session

import (
	"time"

	"github.com/google/uuid"
)

// Sink receives snapshots to render. It must not call back into the controller.
type Sink interface {
	Render(Snapshot)
}

// Scheduler arms fire-once delayed transitions. When a timer fires, the
// implementation must hand it back through the same serialization point as
// samples, so OnTimer never races with OnSample.
type Scheduler interface {
	After(d time.Duration, t Timer)
	CancelAll()
}

// Archive stores one frame per successful challenge. Save must not block:
// slow work (image transform, disk write) happens elsewhere and failures are
// reported there, never to the controller.
type Archive interface {
	Save(sessionID string, index int, frame []byte)
}

// Log records session boundaries for later summaries.
type Log interface {
	SessionStarted(State)
	SessionEnded(State)
}

// IDGenerator produces session identifiers.
type IDGenerator interface {
	Generate() string
}

// Observer is notified of every session-level transition.
type Observer func(Event)

// UUIDv7Generator generates time-sortable session IDs.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type nopSink struct{}

func (nopSink) Render(Snapshot) {}

type nopScheduler struct{}

func (nopScheduler) After(time.Duration, Timer) {}
func (nopScheduler) CancelAll()                 {}

type nopArchive struct{}

func (nopArchive) Save(string, int, []byte) {}

type nopLog struct{}

func (nopLog) SessionStarted(State) {}
func (nopLog) SessionEnded(State)   {}

// Recorder is a Sink that keeps every snapshot. Not safe for concurrent use.
type Recorder struct {
	Snapshots []Snapshot
}

// Render appends the snapshot.
func (r *Recorder) Render(s Snapshot) {
	r.Snapshots = append(r.Snapshots, s)
}

// Last returns the most recent snapshot.
func (r *Recorder) Last() (Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}

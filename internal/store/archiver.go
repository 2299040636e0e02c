package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/faceoff/internal/session"
)

// DefaultArchiveQueue is the number of pending writes the Archiver buffers.
const DefaultArchiveQueue = 64

// writeTimeout bounds each background database write.
const writeTimeout = 5 * time.Second

type jobKind int

const (
	jobFrame jobKind = iota + 1
	jobSessionStart
	jobSessionEnd
)

type job struct {
	kind      jobKind
	sessionID string
	index     int
	frame     []byte
	state     session.State
}

// ArchiverStats counts what happened to submitted writes.
type ArchiverStats struct {
	Saved   int64 `json:"saved"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Archiver persists frames and session records on one background goroutine.
// It implements session.Archive and session.Log.
//
// Thread-safety model:
//   - Save(), SessionStarted(), SessionEnded(): safe from any goroutine
//   - Save never blocks; when the buffer is full the frame is dropped
//   - Writes are applied in submission order
//   - Close(): drains pending writes, then stops the worker
type Archiver struct {
	store  *Store
	rotate bool
	jobs   chan job
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	saved   atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*archiverConfig)

type archiverConfig struct {
	queue  int
	rotate bool
}

// WithQueueSize sets the write buffer size (default DefaultArchiveQueue).
func WithQueueSize(n int) ArchiverOption {
	return func(c *archiverConfig) {
		if n > 0 {
			c.queue = n
		}
	}
}

// WithRotation enables or disables the 90 degree frame rotation (default on).
func WithRotation(on bool) ArchiverOption {
	return func(c *archiverConfig) { c.rotate = on }
}

// NewArchiver starts an archiver writing to st.
func NewArchiver(st *Store, opts ...ArchiverOption) *Archiver {
	cfg := archiverConfig{queue: DefaultArchiveQueue, rotate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Archiver{
		store:  st,
		rotate: cfg.rotate,
		jobs:   make(chan job, cfg.queue),
		done:   make(chan struct{}),
	}
	go a.worker()
	return a
}

// Save queues a frame for storage. Never blocks.
func (a *Archiver) Save(sessionID string, index int, frame []byte) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		slog.Warn("frame dropped: archiver closed", "session_id", sessionID, "index", index)
		return
	}

	// Copy: the caller keeps ownership of its buffer.
	buf := make([]byte, len(frame))
	copy(buf, frame)

	select {
	case a.jobs <- job{kind: jobFrame, sessionID: sessionID, index: index, frame: buf}:
	default:
		a.dropped.Add(1)
		slog.Warn("frame dropped: archive queue full", "session_id", sessionID, "index", index)
	}
}

// SessionStarted queues the session start record.
func (a *Archiver) SessionStarted(st session.State) {
	a.submit(job{kind: jobSessionStart, sessionID: st.SessionID, state: st})
}

// SessionEnded queues the session summary.
func (a *Archiver) SessionEnded(st session.State) {
	a.submit(job{kind: jobSessionEnd, sessionID: st.SessionID, state: st})
}

// submit queues a session record. Session records are rare and must not
// be lost, so this waits for buffer space.
func (a *Archiver) submit(j job) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		slog.Warn("session record dropped: archiver closed", "session_id", j.sessionID)
		return
	}
	a.jobs <- j
}

// Close stops accepting writes and waits for pending ones to finish.
func (a *Archiver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.jobs)
	a.mu.Unlock()

	<-a.done
}

// Stats returns write counters.
func (a *Archiver) Stats() ArchiverStats {
	return ArchiverStats{
		Saved:   a.saved.Load(),
		Failed:  a.failed.Load(),
		Dropped: a.dropped.Load(),
	}
}

func (a *Archiver) worker() {
	defer close(a.done)
	for j := range a.jobs {
		if err := a.process(j); err != nil {
			a.failed.Add(1)
			slog.Error("archive write failed",
				"error", err,
				"session_id", j.sessionID,
				"kind", int(j.kind),
				"index", j.index,
			)
			continue
		}
		a.saved.Add(1)
	}
}

func (a *Archiver) process(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch j.kind {
	case jobFrame:
		return a.store.SaveFrame(ctx, j.sessionID, j.index, a.prepare(j))
	case jobSessionStart:
		return a.store.StartSession(ctx, j.state)
	case jobSessionEnd:
		return a.store.EndSession(ctx, j.state)
	}
	return nil
}

// prepare rotates the frame when enabled. A frame that cannot be decoded
// is stored as received.
func (a *Archiver) prepare(j job) []byte {
	if !a.rotate {
		return j.frame
	}
	out, err := RotateClockwise(j.frame)
	if err != nil {
		slog.Debug("frame stored unrotated",
			"error", err,
			"session_id", j.sessionID,
			"index", j.index,
		)
		return j.frame
	}
	return out
}

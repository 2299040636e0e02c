package engine

import (
	"sync/atomic"
	"time"
)

// Clock provides wall time and fire-once timers.
//
// SystemClock is used in production; tests use testutil.ManualClock, which
// satisfies the same method set.
type Clock interface {
	Now() time.Time

	// AfterFunc runs f once after d. The returned function stops the timer
	// and reports whether it was still pending.
	AfterFunc(d time.Duration, f func()) func() bool
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// Sequencer is a monotonic logical counter for event ordering.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer starting at a specific value.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number. The first call returns start+1.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}

package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a wall clock that only moves when told to.
//
// Timers armed with AfterFunc fire synchronously inside Advance, in deadline
// order (ties in arming order), on the goroutine that calls Advance. This
// makes timer-driven code reproducible in tests.
//
// Thread-safety: All methods are safe for concurrent use. Callbacks run
// without the internal lock held, so they may arm or stop other timers.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int64
	timers map[int64]*manualTimer
}

type manualTimer struct {
	id       int64
	deadline time.Time
	fn       func()
}

// Epoch is the default start time of a ManualClock.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// NewManualClock creates a clock starting at Epoch.
func NewManualClock() *ManualClock {
	return NewManualClockAt(Epoch)
}

// NewManualClockAt creates a clock starting at a specific instant.
func NewManualClockAt(start time.Time) *ManualClock {
	return &ManualClock{
		now:    start,
		timers: make(map[int64]*manualTimer),
	}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc arms fn to run once the clock has advanced by d.
// The returned function disarms the timer and reports whether it was still pending.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.timers[id] = &manualTimer{id: id, deadline: c.now.Add(d), fn: fn}

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.timers[id]; !ok {
			return false
		}
		delete(c.timers, id)
		return true
	}
}

// Advance moves time forward by d, firing every timer whose deadline is reached.
// Time is set to each timer's deadline before its callback runs.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.nextDueLocked(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		delete(c.timers, t.id)
		c.now = t.deadline
		c.mu.Unlock()

		t.fn()
	}
}

// Pending returns the number of armed timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *ManualClock) nextDueLocked(target time.Time) *manualTimer {
	due := make([]*manualTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.deadline.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].id < due[j].id
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}

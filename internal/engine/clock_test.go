package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_New(t *testing.T) {
	s := NewSequencer()
	assert.Equal(t, int64(0), s.Current(), "new sequencer should start at 0")
}

func TestSequencer_NewAt(t *testing.T) {
	s := NewSequencerAt(100)
	assert.Equal(t, int64(100), s.Current())
	assert.Equal(t, int64(101), s.Next())
}

func TestSequencer_Next_Incrementing(t *testing.T) {
	s := NewSequencer()

	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(3), s.Next())
	assert.Equal(t, int64(3), s.Current())
}

func TestSequencer_ThreadSafe(t *testing.T) {
	s := NewSequencer()
	const goroutines = 50
	const callsPerGoroutine = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				v := s.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*callsPerGoroutine, "all seqs should be unique")
	assert.Equal(t, int64(goroutines*callsPerGoroutine), s.Current())
}

func TestSystemClock_AfterFuncStop(t *testing.T) {
	var c Clock = SystemClock{}

	fired := make(chan struct{}, 1)
	stop := c.AfterFunc(time.Hour, func() { fired <- struct{}{} })
	assert.True(t, stop(), "stopping a pending timer reports true")

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	default:
	}
}

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faceoff/internal/session"
)

var (
	_ session.Archive = (*Archiver)(nil)
	_ session.Log     = (*Archiver)(nil)
)

func TestArchiver_SavesAndRotates(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s)

	a.SessionStarted(testState("s1"))
	a.Save("s1", 0, testPNG(t, 4, 2))
	a.Close()

	frame, err := s.LoadFrame(context.Background(), "s1", 0)
	require.NoError(t, err)

	rotated, err := RotateClockwise(testPNG(t, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, rotated, frame)

	rec, err := s.ReadSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeActive, rec.Outcome)

	assert.Equal(t, ArchiverStats{Saved: 2}, a.Stats())
}

func TestArchiver_UndecodableFrameStoredRaw(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s)

	a.Save("s1", 0, []byte("raw-bytes"))
	a.Close()

	frame, err := s.LoadFrame(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-bytes"), frame)
}

func TestArchiver_RotationDisabled(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s, WithRotation(false))

	src := testPNG(t, 4, 2)
	a.Save("s1", 0, src)
	a.Close()

	frame, err := s.LoadFrame(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, src, frame)
}

func TestArchiver_SessionEnd(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s)

	st := testState("s1")
	a.SessionStarted(st)
	st.Active = false
	st.CurrentPoints = 17
	st.EndedAt = testStart.Add(time.Minute)
	a.SessionEnded(st)
	a.Close()

	rec, err := s.ReadSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 17, rec.FinalPoints)
	assert.True(t, rec.Ended())
}

func TestArchiver_FailureIsCountedNotReturned(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s)

	// Empty session id is rejected by the store.
	a.Save("", 0, []byte("x"))
	a.Save("s1", 0, []byte("ok"))
	a.Close()

	stats := a.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Saved)

	n, err := s.FrameCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchiver_ClosedDropsWrites(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s)
	a.Close()
	a.Close()

	a.Save("s1", 0, []byte("late"))
	a.SessionStarted(testState("s1"))

	assert.Equal(t, int64(2), a.Stats().Dropped)
	n, err := s.FrameCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestArchiver_CopiesFrame(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s, WithRotation(false))

	buf := []byte("original")
	a.Save("s1", 0, buf)
	copy(buf, "mutated!")
	a.Close()

	frame, err := s.LoadFrame(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), frame)
}

func TestArchiver_ConcurrentSaves(t *testing.T) {
	s := createTestStore(t)
	a := NewArchiver(s, WithRotation(false), WithQueueSize(256))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			a.Save("s1", idx, []byte{byte(idx)})
		}(i)
	}
	wg.Wait()
	a.Close()

	stats := a.Stats()
	assert.Equal(t, int64(100), stats.Saved+stats.Dropped)

	n, err := s.FrameCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int(stats.Saved), n)
}

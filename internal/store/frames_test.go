package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFrame_LoadFrame(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFrame(ctx, "s1", 0, []byte("frame-0")))
	require.NoError(t, s.SaveFrame(ctx, "s1", 1, []byte("frame-1")))

	got, err := s.LoadFrame(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("frame-1"), got)

	n, err := s.FrameCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveFrame_FirstWriteWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFrame(ctx, "s1", 0, []byte("first")))
	require.NoError(t, s.SaveFrame(ctx, "s1", 0, []byte("second")), "duplicate is ignored, not an error")

	got, err := s.LoadFrame(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestSaveFrame_SessionsIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFrame(ctx, "a", 0, []byte("a0")))
	require.NoError(t, s.SaveFrame(ctx, "b", 0, []byte("b0")))

	got, err := s.LoadFrame(ctx, "b", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("b0"), got)

	n, err := s.FrameCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveFrame_Invalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.SaveFrame(ctx, "", 0, []byte("x")))
	assert.Error(t, s.SaveFrame(ctx, "s1", -1, []byte("x")))
	assert.Error(t, s.SaveFrame(ctx, "s1", 0, nil))
}

func TestLoadFrame_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadFrame(context.Background(), "missing", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestFrameIndices_OrderedWithGaps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, idx := range []int{3, 0, 1} {
		require.NoError(t, s.SaveFrame(ctx, "s1", idx, []byte{byte(idx)}))
	}

	indices, err := s.FrameIndices(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, indices)

	empty, err := s.FrameIndices(ctx, "none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

package store

import (
	"context"
	"fmt"
)

// Slideshow cycles through a session's frames in index order, wrapping
// around at the end. It is the post-game playback sequence.
type Slideshow struct {
	indices []int
	pos     int
}

// NewSlideshow creates a slideshow over the given frame indices.
func NewSlideshow(indices []int) *Slideshow {
	cp := make([]int, len(indices))
	copy(cp, indices)
	return &Slideshow{indices: cp}
}

// OpenSlideshow loads the stored frame indices of a session.
func (s *Store) OpenSlideshow(ctx context.Context, sessionID string) (*Slideshow, error) {
	indices, err := s.FrameIndices(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("open slideshow: %w", err)
	}
	return NewSlideshow(indices), nil
}

// Len returns the number of distinct frames.
func (s *Slideshow) Len() int {
	return len(s.indices)
}

// Next returns the next frame index. Returns false when there are no frames.
func (s *Slideshow) Next() (int, bool) {
	if len(s.indices) == 0 {
		return 0, false
	}
	idx := s.indices[s.pos]
	s.pos = (s.pos + 1) % len(s.indices)
	return idx, true
}

// Sequence returns the indices shown over the given number of full cycles.
func (s *Slideshow) Sequence(cycles int) []int {
	out := make([]int, 0, len(s.indices)*max(cycles, 0))
	for c := 0; c < cycles; c++ {
		out = append(out, s.indices...)
	}
	return out
}

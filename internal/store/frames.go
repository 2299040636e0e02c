package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveFrame stores an encoded frame at idx within a session.
// Uses ON CONFLICT DO NOTHING for idempotency: the first write for an
// index wins and a duplicate is silently ignored.
func (s *Store) SaveFrame(ctx context.Context, sessionID string, idx int, png []byte) error {
	if sessionID == "" {
		return fmt.Errorf("save frame: empty session id")
	}
	if idx < 0 {
		return fmt.Errorf("save frame: negative index %d", idx)
	}
	if len(png) == 0 {
		return fmt.Errorf("save frame: empty image")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (session_id, idx, png, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, idx) DO NOTHING
	`, sessionID, idx, png, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	return nil
}

// LoadFrame returns the frame stored at idx. Returns ErrFrameNotFound
// (wrapped) when there is none.
func (s *Store) LoadFrame(ctx context.Context, sessionID string, idx int) ([]byte, error) {
	var png []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT png FROM frames WHERE session_id = ? AND idx = ?
	`, sessionID, idx).Scan(&png)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load frame %s/%d: %w", sessionID, idx, ErrFrameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load frame %s/%d: %w", sessionID, idx, err)
	}
	return png, nil
}

// FrameCount returns the number of frames stored for a session.
func (s *Store) FrameCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM frames WHERE session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}

// FrameIndices returns the stored indices for a session, ascending.
// A dropped or failed save leaves a gap.
func (s *Store) FrameIndices(ctx context.Context, sessionID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx FROM frames WHERE session_id = ? ORDER BY idx ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query frame indices: %w", err)
	}
	defer rows.Close()

	indices := []int{}
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scan frame index: %w", err)
		}
		indices = append(indices, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frame indices: %w", err)
	}
	return indices, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/faceoff/internal/session"
)

// Session outcomes as stored in sessions.outcome.
const (
	OutcomeActive    = "active"
	OutcomeGameOver  = "game_over"
	OutcomeAbandoned = "abandoned"
)

// SessionRecord is one row of the sessions table.
type SessionRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at,omitempty"`
	FinalPoints    int       `json:"final_points"`
	TotalShown     int       `json:"total_shown"`
	TotalSucceeded int       `json:"total_succeeded"`
	FramesSaved    int       `json:"frames_saved"`
	Outcome        string    `json:"outcome"`
}

// Ended reports whether the session is over, by game over or abandonment.
func (r SessionRecord) Ended() bool {
	return r.Outcome != OutcomeActive
}

// StartSession records the start of a session.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) StartSession(ctx context.Context, st session.State) error {
	if st.SessionID == "" {
		return fmt.Errorf("start session: empty session id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, outcome)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, st.SessionID, st.StartedAt.UnixMilli(), OutcomeActive)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EndSession records the final state of a session with outcome game_over,
// or abandoned when st.Abandoned is set. The row is created if the start
// record never made it to disk.
func (s *Store) EndSession(ctx context.Context, st session.State) error {
	if st.SessionID == "" {
		return fmt.Errorf("end session: empty session id")
	}

	outcome := OutcomeGameOver
	if st.Abandoned {
		outcome = OutcomeAbandoned
	}

	var ended any
	if !st.EndedAt.IsZero() {
		ended = st.EndedAt.UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, started_at, ended_at, final_points, total_shown, total_succeeded, frames_saved, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			final_points = excluded.final_points,
			total_shown = excluded.total_shown,
			total_succeeded = excluded.total_succeeded,
			frames_saved = excluded.frames_saved,
			outcome = excluded.outcome
	`,
		st.SessionID,
		st.StartedAt.UnixMilli(),
		ended,
		st.CurrentPoints,
		st.TotalShown,
		st.TotalSucceeded,
		st.FramesSaved,
		outcome,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// ReadSession returns one session. Returns ErrSessionNotFound (wrapped)
// when the ID is unknown.
func (s *Store) ReadSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, final_points, total_shown, total_succeeded, frames_saved, outcome
		FROM sessions
		WHERE id = ?
	`, id)

	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns up to limit sessions, most recent first.
// A limit <= 0 returns all sessions.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, final_points, total_shown, total_succeeded, frames_saved, outcome
		FROM sessions
		ORDER BY started_at DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	records := []SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var (
		rec     SessionRecord
		started int64
		ended   sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&started,
		&ended,
		&rec.FinalPoints,
		&rec.TotalShown,
		&rec.TotalSucceeded,
		&rec.FramesSaved,
		&rec.Outcome,
	)
	if err != nil {
		return SessionRecord{}, err
	}
	rec.StartedAt = time.UnixMilli(started).UTC()
	if ended.Valid {
		rec.EndedAt = time.UnixMilli(ended.Int64).UTC()
	}
	return rec, nil
}

// Package store provides SQLite-backed storage for FaceOff sessions and
// the frames captured on successful challenges.
//
// The store holds:
//   - Sessions: one summary row per game (points, counters, outcome)
//   - Frames: PNG images indexed 0..n-1 within a session
//
// # Critical Patterns
//
// Frame identity:
//   - UNIQUE(session_id, idx) constraint
//   - The index is assigned by the session controller before the save is
//     dispatched, so a late write never collides with a later frame
//
// Best-effort persistence:
//   - The Archiver runs all writes on one background goroutine
//   - Failures are logged and counted, never returned to the game loop
//
// Deterministic queries:
//   - Frames are read ORDER BY idx ASC
//   - Sessions are listed ORDER BY started_at DESC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store

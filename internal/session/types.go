package session

import (
	"time"

	"github.com/roach88/faceoff/internal/expression"
)

// DefaultLives is the number of failures a player may make before the game ends.
const DefaultLives = 3

// DefaultGameOverDelay is the gap between the last failure and the
// slideshow snapshot.
const DefaultGameOverDelay = time.Second

// Sample is one face-tracker reading delivered to the controller.
type Sample struct {
	// At is the capture time. Zero means "stamp on arrival".
	At time.Time

	// Signal holds channel intensities in [0,1].
	Signal expression.Signal

	// Frame is the encoded camera image for this sample, if any.
	Frame []byte
}

// TimerKind identifies a scheduled transition.
type TimerKind int

const (
	// TimerActivate ends the pause and shows the next challenge.
	TimerActivate TimerKind = iota + 1
	// TimerGameOver starts post-game playback.
	TimerGameOver
)

func (k TimerKind) String() string {
	switch k {
	case TimerActivate:
		return "activate"
	case TimerGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Timer is a scheduled transition tagged with the session generation that
// requested it. A timer whose generation no longer matches is discarded.
type Timer struct {
	Kind       TimerKind
	Generation uint64
}

// State is the cumulative state of one game session.
//
// INVARIANTS:
//   - CurrentPoints, TotalShown, TotalSucceeded change only while Active
//   - StartGame resets LivesLeft/CurrentPoints/TotalShown/TotalSucceeded to {lives, 0, 0, 0}
//   - Once Active is false the values are frozen until the next StartGame
//   - Abandoned is set only by Abandon, never together with a game over
type State struct {
	SessionID      string    `json:"session_id"`
	Generation     uint64    `json:"generation"`
	LivesLeft      int       `json:"lives_left"`
	CurrentPoints  int       `json:"current_points"`
	TotalShown     int       `json:"total_shown"`
	TotalSucceeded int       `json:"total_succeeded"`
	FramesSaved    int       `json:"frames_saved"`
	Active         bool      `json:"active"`
	Abandoned      bool      `json:"abandoned,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at,omitempty"`
}

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	Active              bool    `json:"active"`
	ChallengeName       *string `json:"challenge_name"`
	ChallengeID         string  `json:"challenge_id,omitempty"`
	FractionTimeLeft    float64 `json:"fraction_time_left"`
	LiveEstimatedPoints int     `json:"live_estimated_points"`
	LivesLeft           int     `json:"lives_left"`
	CurrentPoints       int     `json:"current_points"`
	TotalShown          int     `json:"total_shown"`
	TotalSucceeded      int     `json:"total_succeeded"`
	GameOver            bool    `json:"game_over,omitempty"`
	Slideshow           bool    `json:"slideshow,omitempty"`
	SessionID           string  `json:"session_id,omitempty"`
	FramesSaved         int     `json:"frames_saved,omitempty"`
}

// Name returns the challenge display name or "".
func (s Snapshot) Name() string {
	if s.ChallengeName == nil {
		return ""
	}
	return *s.ChallengeName
}

// EventKind labels a session-level transition.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventShown     EventKind = "shown"
	EventSucceeded EventKind = "succeeded"
	EventExpired   EventKind = "expired"
	EventGameOver  EventKind = "game_over"
	EventSlideshow EventKind = "slideshow"
	EventAbandoned EventKind = "abandoned"
)

// Event describes one transition, for observers such as trace recorders.
type Event struct {
	Kind          EventKind
	At            time.Time
	SessionID     string
	Ordinal       int
	RuleID        string
	Points        int
	LivesLeft     int
	CurrentPoints int
}

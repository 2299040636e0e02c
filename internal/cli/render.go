package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/faceoff/internal/session"
)

// snapshotPrinter is the terminal presentation sink. JSON mode writes every
// snapshot as one line; text mode writes a line only when something other
// than the countdown changes.
type snapshotPrinter struct {
	w    io.Writer
	json bool
	enc  *json.Encoder
	last string
}

func newSnapshotPrinter(w io.Writer, format string) *snapshotPrinter {
	return &snapshotPrinter{w: w, json: format == "json", enc: json.NewEncoder(w)}
}

// Render implements session.Sink.
func (p *snapshotPrinter) Render(s session.Snapshot) {
	if p.json {
		if err := p.enc.Encode(s); err != nil {
			slog.Error("render snapshot", "error", err)
		}
		return
	}

	line := formatSnapshot(s)
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.w, line)
}

// formatSnapshot renders the text view of a snapshot, without the
// continuously changing time bar.
func formatSnapshot(s session.Snapshot) string {
	switch {
	case s.Slideshow:
		return fmt.Sprintf("SLIDESHOW  session=%s frames=%d", s.SessionID, s.FramesSaved)
	case s.GameOver:
		return fmt.Sprintf("GAME OVER  points=%d shown=%d succeeded=%d", s.CurrentPoints, s.TotalShown, s.TotalSucceeded)
	case !s.Active:
		return "waiting for start"
	case s.ChallengeName == nil:
		return fmt.Sprintf("lives=%d points=%d  get ready...", s.LivesLeft, s.CurrentPoints)
	default:
		return fmt.Sprintf("lives=%d points=%d  >> %s <<", s.LivesLeft, s.CurrentPoints, s.Name())
	}
}

// logTransition is a session.Observer that reports transitions at debug.
func logTransition(ev session.Event) {
	slog.Debug("transition",
		"kind", string(ev.Kind),
		"session_id", ev.SessionID,
		"ordinal", ev.Ordinal,
		"rule", ev.RuleID,
		"points", ev.Points,
		"lives_left", ev.LivesLeft,
		"current_points", ev.CurrentPoints,
	)
}

// Package feed reads face-tracker samples from a JSON-lines stream and
// forwards them to the game loop.
//
// One JSON object per line:
//
//	{"t_ms": 1234, "channels": {"jawOpen": 0.8}, "frame": "<base64 image>"}
//	{"command": "start"}
//
// t_ms is relative to the reader's base time. A line without t_ms is
// stamped on arrival by the loop. Malformed lines are logged and skipped.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/faceoff/internal/expression"
	"github.com/roach88/faceoff/internal/session"
)

// CommandStart is the command that starts a game.
const CommandStart = "start"

// MaxLineSize bounds one line. Frames are base64 images, so lines are long.
const MaxLineSize = 16 << 20

// Line is the wire form of one feed line.
type Line struct {
	TMs      *int64             `json:"t_ms,omitempty"`
	Channels map[string]float64 `json:"channels,omitempty"`
	Frame    []byte             `json:"frame,omitempty"`
	Command  string             `json:"command,omitempty"`
}

// Target receives decoded lines. Implemented by *engine.Loop.
// Both methods return false once the target no longer accepts input.
type Target interface {
	SubmitSample(s session.Sample) bool
	RequestStart() bool
}

// Stats counts what a Run consumed.
type Stats struct {
	Lines    int `json:"lines"`
	Samples  int `json:"samples"`
	Commands int `json:"commands"`
	Skipped  int `json:"skipped"`
}

// Reader decodes a JSON-lines feed.
type Reader struct {
	r      io.Reader
	base   time.Time
	pacing bool
	now    func() time.Time
}

// Option configures a Reader.
type Option func(*Reader)

// WithBaseTime sets the instant t_ms is measured from.
// Default: the wall time when Run starts.
func WithBaseTime(t time.Time) Option {
	return func(r *Reader) { r.base = t }
}

// WithPacing makes Run wait until base+t_ms before forwarding each sample,
// so a recorded feed replays in real time.
func WithPacing(on bool) Option {
	return func(r *Reader) { r.pacing = on }
}

// WithNow overrides the wall clock used for the default base and pacing.
func WithNow(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

// NewReader creates a reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{r: r, now: time.Now}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Run reads until EOF, ctx cancellation, or the target stops accepting
// input. Only I/O errors are returned; bad lines are skipped.
func (r *Reader) Run(ctx context.Context, target Target) (Stats, error) {
	var stats Stats

	base := r.base
	if base.IsZero() {
		base = r.now()
	}

	scanner := bufio.NewScanner(r.r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Lines++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			stats.Skipped++
			slog.Warn("malformed feed line skipped", "line", stats.Lines, "error", err)
			continue
		}

		if line.Command != "" {
			if line.Command != CommandStart {
				stats.Skipped++
				slog.Warn("unknown feed command skipped", "line", stats.Lines, "command", line.Command)
				continue
			}
			stats.Commands++
			if !target.RequestStart() {
				slog.Debug("feed stopped: target closed", "line", stats.Lines)
				return stats, nil
			}
			continue
		}

		sample, err := r.toSample(line, base)
		if err != nil {
			stats.Skipped++
			slog.Warn("invalid feed sample skipped", "line", stats.Lines, "error", err)
			continue
		}

		if r.pacing && !sample.At.IsZero() {
			if err := r.waitUntil(ctx, sample.At); err != nil {
				return stats, err
			}
		}

		stats.Samples++
		if !target.SubmitSample(sample) {
			slog.Debug("feed stopped: target closed", "line", stats.Lines)
			return stats, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read feed: %w", err)
	}
	return stats, nil
}

func (r *Reader) toSample(line Line, base time.Time) (session.Sample, error) {
	signal := make(expression.Signal, len(line.Channels))
	for ch, v := range line.Channels {
		if v < 0 || v > 1 {
			return session.Sample{}, fmt.Errorf("channel %s: intensity %v outside [0,1]", ch, v)
		}
		signal[ch] = v
	}

	s := session.Sample{Signal: signal, Frame: line.Frame}
	if line.TMs != nil {
		if *line.TMs < 0 {
			return session.Sample{}, fmt.Errorf("negative t_ms %d", *line.TMs)
		}
		s.At = base.Add(time.Duration(*line.TMs) * time.Millisecond)
	}
	return s, nil
}

func (r *Reader) waitUntil(ctx context.Context, at time.Time) error {
	d := at.Sub(r.now())
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/faceoff/internal/challenge"
	"github.com/roach88/faceoff/internal/engine"
	"github.com/roach88/faceoff/internal/feed"
	"github.com/roach88/faceoff/internal/session"
	"github.com/roach88/faceoff/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database   string
	Definition string
	Input      string
	Seed       uint64
	AutoStart  bool
	Pace       bool
	Linger     time.Duration

	// Clock and IDs allow overriding time and session IDs (for testing).
	// If nil, the system clock and UUIDv7 IDs are used.
	Clock engine.Clock
	IDs   session.IDGenerator
}

// PlaySummary is printed when play finishes.
type PlaySummary struct {
	SessionID      string              `json:"session_id,omitempty"`
	Points         int                 `json:"points"`
	TotalShown     int                 `json:"total_shown"`
	TotalSucceeded int                 `json:"total_succeeded"`
	FramesSaved    int                 `json:"frames_saved"`
	GameOver       bool                `json:"game_over"`
	Abandoned      bool                `json:"abandoned"`
	Feed           feed.Stats          `json:"feed"`
	Archive        store.ArchiverStats `json:"archive"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RootOptions: rootOpts})
}

func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game from a face-tracker feed",
		Long: `Run the game loop against a JSON-lines face-tracker feed.

Each feed line is either a sample or a command:

  {"t_ms": 1234, "channels": {"jawOpen": 0.8}, "frame": "<base64 image>"}
  {"command": "start"}

Snapshots are written to stdout as they change (one JSON object per
snapshot with --format json). Frames of successful challenges and the
session summary are recorded in the SQLite database.

Example:
  face-tracker | faceoff play --db ./faceoff.db --autostart
  faceoff play --db ./faceoff.db --input recorded.jsonl --seed 7 --linger 2s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Definition, "def", "", "game definition (.cue); built-in when empty")
	cmd.Flags().StringVar(&opts.Input, "input", "-", "feed file, or - for stdin")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "challenge picker seed (0 = random)")
	cmd.Flags().BoolVar(&opts.AutoStart, "autostart", false, "start a game before reading the feed")
	cmd.Flags().BoolVar(&opts.Pace, "pace", true, "replay timestamped samples in real time")
	cmd.Flags().DurationVar(&opts.Linger, "linger", 0, "keep the loop running this long after the feed ends")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	game, err := LoadGame(opts.Definition)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load game definition", err)
	}
	slog.Info("game loaded",
		"expressions", game.Catalog.Len(),
		"stages", len(game.Curve),
		"lives", game.Rules.Lives,
	)

	in, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open feed", err)
	}
	defer in.Close()

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	ids := opts.IDs
	if ids == nil {
		ids = session.UUIDv7Generator{}
	}

	clock := opts.Clock
	if clock == nil {
		clock = engine.SystemClock{}
	}

	archiver := store.NewArchiver(st, store.WithRotation(game.Rules.RotateFrames))
	loop := engine.New(clock)
	printer := newSnapshotPrinter(cmd.OutOrStdout(), opts.Format)
	ctrl := session.NewController(
		challenge.New(game.Catalog, game.Curve, challenge.NewRandomPicker(seed)),
		session.WithScheduler(loop),
		session.WithSink(printer),
		session.WithArchive(archiver),
		session.WithLog(archiver),
		session.WithIDGenerator(ids),
		session.WithObserver(logTransition),
		session.WithLives(game.Rules.Lives),
		session.WithGameOverDelay(game.Rules.GameOverDelay),
	)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.AutoStart {
		loop.RequestStart()
	}

	var feedStats feed.Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := loop.Run(gctx, ctrl)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		// Unblock a pending read when play is interrupted.
		release := context.AfterFunc(gctx, func() { in.Close() })
		defer release()
		defer loop.Stop()

		reader := feed.NewReader(in, feed.WithPacing(opts.Pace))
		stats, err := reader.Run(gctx, loop)
		feedStats = stats
		if err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		slog.Info("feed finished", "lines", stats.Lines, "samples", stats.Samples, "skipped", stats.Skipped)
		return linger(gctx, opts.Linger)
	})

	runErr := g.Wait()

	// The loop goroutine has returned, so the controller is ours. A game
	// still running when input ended is recorded as abandoned.
	ctrl.Abandon(clock.Now())

	// Flush pending frame and session writes before reporting.
	archiver.Close()

	if runErr != nil {
		return WrapExitError(ExitFailure, "play failed", runErr)
	}

	final := ctrl.State()
	summary := PlaySummary{
		SessionID:      final.SessionID,
		Points:         final.CurrentPoints,
		TotalShown:     final.TotalShown,
		TotalSucceeded: final.TotalSucceeded,
		FramesSaved:    final.FramesSaved,
		GameOver:       final.SessionID != "" && !final.Active && !final.Abandoned,
		Abandoned:      final.Abandoned,
		Feed:           feedStats,
		Archive:        archiver.Stats(),
	}

	formatter.SessionID = summary.SessionID
	if formatter.JSON() {
		return formatter.Success(summary)
	}
	if summary.SessionID == "" {
		formatter.Line("No game was started.")
		return nil
	}
	formatter.Line("Session %s: %d points (%d/%d challenges), %d frames saved",
		summary.SessionID, summary.Points, summary.TotalSucceeded, summary.TotalShown, summary.FramesSaved)
	if summary.Abandoned {
		formatter.Line("Input ended before game over; session recorded as abandoned.")
	}
	formatter.VerboseLog("Feed: %d lines, %d samples, %d skipped; archive: %d failed, %d dropped",
		feedStats.Lines, feedStats.Samples, feedStats.Skipped, summary.Archive.Failed, summary.Archive.Dropped)
	return nil
}

// openInput opens the feed. "-" reads stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// linger waits d or until ctx is done, so pending timers (the next
// challenge, the slideshow) can still fire after the feed ends.
func linger(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return nil
}

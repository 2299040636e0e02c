package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/faceoff/internal/store"
)

// SlideshowOptions holds flags for the slideshow command.
type SlideshowOptions struct {
	*RootOptions
	Database  string
	SessionID string
	Out       string
	Cycles    int
}

// SlideshowResult lists the exported files in playback order.
type SlideshowResult struct {
	SessionID string   `json:"session_id"`
	Frames    int      `json:"frames"`
	Files     []string `json:"files"`
}

// NewSlideshowCommand creates the slideshow command.
func NewSlideshowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SlideshowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "slideshow",
		Short: "Export a session's frames in playback order",
		Long: `Export the frames captured on successful challenges of a session.

Files are numbered in the order the post-game slideshow shows them,
repeating the whole sequence --cycles times.

Examples:
  faceoff slideshow --db ./faceoff.db --session <id> --out ./frames
  faceoff slideshow --db ./faceoff.db --session <id> --out ./frames --cycles 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlideshow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session ID (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output directory (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().IntVar(&opts.Cycles, "cycles", 1, "number of times to repeat the sequence")

	return cmd
}

func runSlideshow(opts *SlideshowOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.SessionID = opts.SessionID

	if opts.Cycles < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--cycles must be at least 1, got %d", opts.Cycles))
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.ReadSession(ctx, opts.SessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.SessionID))
		}
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	show, err := st.OpenSlideshow(ctx, opts.SessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load frames", err)
	}

	if err := os.MkdirAll(opts.Out, 0755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	result := SlideshowResult{
		SessionID: opts.SessionID,
		Frames:    show.Len(),
		Files:     []string{},
	}

	for pos, idx := range show.Sequence(opts.Cycles) {
		data, err := st.LoadFrame(ctx, opts.SessionID, idx)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load frame %d", idx), err)
		}

		name := fmt.Sprintf("%04d-frame%03d%s", pos, idx, frameExt(data))
		path := filepath.Join(opts.Out, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write frame", err)
		}
		formatter.VerboseLog("wrote %s", path)
		result.Files = append(result.Files, path)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	if result.Frames == 0 {
		formatter.Line("Session %s has no frames.", opts.SessionID)
		return nil
	}
	formatter.Line("Exported %d files (%d frames x %d cycles) to %s",
		len(result.Files), result.Frames, opts.Cycles, opts.Out)
	return nil
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// frameExt picks a file extension from the stored bytes. Frames that could
// not be decoded when archived are kept as received.
func frameExt(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return ".png"
	case bytes.HasPrefix(data, jpegMagic):
		return ".jpg"
	default:
		return ".bin"
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/faceoff/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database  string
	Limit     int
	SessionID string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded game sessions",
		Long: `List the sessions recorded in a database, newest first.
With --session, show only that session.

Examples:
  faceoff sessions --db ./faceoff.db
  faceoff sessions --db ./faceoff.db --limit 5 --format json
  faceoff sessions --db ./faceoff.db --session <id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum sessions to list (0 = all)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "show a single session")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.SessionID != "" {
		rec, err := st.ReadSession(ctx, opts.SessionID)
		if errors.Is(err, store.ErrSessionNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.SessionID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		formatter.SessionID = rec.ID
		if formatter.JSON() {
			return formatter.Success(rec)
		}
		return writeSessionTable(cmd.OutOrStdout(), []store.SessionRecord{rec})
	}

	records, err := st.ListSessions(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if formatter.JSON() {
		return formatter.Success(records)
	}
	if len(records) == 0 {
		formatter.Line("No sessions recorded.")
		return nil
	}
	return writeSessionTable(cmd.OutOrStdout(), records)
}

func writeSessionTable(w io.Writer, records []store.SessionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tOUTCOME\tPOINTS\tSUCCEEDED\tFRAMES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%d\n",
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Outcome,
			r.FinalPoints,
			r.TotalSucceeded, r.TotalShown,
			r.FramesSaved,
		)
	}
	return tw.Flush()
}

// openExistingStore opens a database that must already exist. store.Open
// would silently create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/faceoff/internal/compiler"
)

// ValidationResult summarizes a valid game definition.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	File            string   `json:"file"`
	Expressions     []string `json:"expressions"`
	Stages          int      `json:"stages"`
	Lives           int      `json:"lives"`
	GameOverDelayMs int64    `json:"game_over_delay_ms"`
	RotateFrames    bool     `json:"rotate_frames"`
}

// ValidationErrorDetails locates a definition error.
type ValidationErrorDetails struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition.cue>",
		Short: "Validate a game definition",
		Long: `Compile a CUE game definition and report the first error.

Checks the expression catalog (ids, names, channel thresholds, conflict
partners), the difficulty table (monotonically harder stages) and the
session settings (lives, game-over delay, frame rotation).

Exit codes:
  0 - Definition is valid
  1 - Definition has errors
  2 - Command error (file not found, etc.)

Examples:
  faceoff validate ./games/party.cue
  faceoff validate ./games/party.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	formatter.VerboseLog("Compiling %s", path)

	game, err := LoadGame(path)
	if err != nil {
		return outputValidateError(formatter, path, err)
	}

	return outputValidateSuccess(formatter, path, game)
}

func outputValidateError(formatter *OutputFormatter, path string, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	details := ValidationErrorDetails{File: path}
	if loadErr.Pos.IsValid() {
		details.Line = loadErr.Pos.Line()
		details.Column = loadErr.Pos.Column()
	}

	if !formatter.JSON() && details.Line > 0 {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", path, details.Line, details.Column)
	}
	if outErr := formatter.Error(loadErr.Code, loadErr.Message, details); outErr != nil {
		return outErr
	}

	if loadErr.Code == ErrCodeNotFound {
		return NewExitError(ExitCommandError, loadErr.Message)
	}
	return WrapExitError(ExitFailure, "validation failed", loadErr)
}

func outputValidateSuccess(formatter *OutputFormatter, path string, game *compiler.Game) error {
	ids := make([]string, 0, game.Catalog.Len())
	for _, r := range game.Catalog.Rules() {
		ids = append(ids, r.ID)
	}

	result := ValidationResult{
		Valid:           true,
		File:            path,
		Expressions:     ids,
		Stages:          len(game.Curve),
		Lives:           game.Rules.Lives,
		GameOverDelayMs: game.Rules.GameOverDelay.Milliseconds(),
		RotateFrames:    game.Rules.RotateFrames,
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	fmt.Fprintf(formatter.Writer, "  %d expressions, %d stages, %d lives\n",
		len(result.Expressions), result.Stages, result.Lives)
	formatter.VerboseLog("Expressions: %v", result.Expressions)
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/faceoff/internal/compiler"
)

// LoadError represents an error that occurred while loading a game definition.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadGame compiles the game definition at path. An empty path selects the
// built-in definition.
func LoadGame(path string) (*compiler.Game, error) {
	if path == "" {
		game, err := compiler.Default()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("built-in definition: %v", err)}
		}
		return game, nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definition file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	game, err := compiler.LoadFile(path)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return game, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeSyntax      = "E004" // CUE syntax or evaluation error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Database open or query failed
	ErrCodeWriteFailed = "E007" // File write error

	// Definition validation errors
	ErrCodeExpressions = "E101" // Bad expression list or duplicate id
	ErrCodeExpression  = "E102" // Bad expression id or name
	ErrCodeCondition   = "E103" // Bad when/threshold map
	ErrCodeStages      = "E110" // Bad difficulty table
	ErrCodeRules       = "E120" // Bad lives/delay/rotation settings
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeSyntax
	case "expressions":
		return ErrCodeExpressions
	case "id", "name", "conflicts_with":
		return ErrCodeExpression
	case "when":
		return ErrCodeCondition
	case "stages", "from", "time_ms", "max_points", "pause_ms":
		return ErrCodeStages
	case "lives", "game_over_delay_ms", "rotate_frames":
		return ErrCodeRules
	default:
		return ErrCodeGeneric
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"expressions": 8})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]interface{}{"expressions": float64(8)}, resp.Data)
}

func TestOutputFormatter_EnvelopeSessionID(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf, SessionID: "s-1"}

	require.NoError(t, formatter.Error(ErrCodeStoreFailed, "disk full", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)

	buf.Reset()
	formatter.SessionID = ""
	require.NoError(t, formatter.Success(1))
	assert.NotContains(t, buf.String(), "session_id")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]int{"line": 12}
	err := formatter.Error(ErrCodeExpressions, "duplicate expression id", details)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeExpressions, resp.Error.Code)
	assert.Equal(t, "duplicate expression id", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(ErrCodeGeneric, "compilation failed", "game.cue"))
			assert.Contains(t, buf.String(), "Error [E001]: compilation failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: game.cue")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_Line(t *testing.T) {
	buf := &bytes.Buffer{}
	text := &OutputFormatter{Format: "text", Writer: buf}
	text.Line("%d frames", 3)
	assert.Equal(t, "3 frames\n", buf.String())

	buf.Reset()
	jsonOut := &OutputFormatter{Format: "json", Writer: buf}
	jsonOut.Line("%d frames", 3)
	assert.Empty(t, buf.String(), "text lines would corrupt JSON output")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Compiling %s", "game.cue")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Compiling game.cue")

	errOut.Reset()
	formatter.Verbose = false
	formatter.VerboseLog("Compiling %s", "game.cue")
	assert.Empty(t, errOut.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("play: %w", WrapExitError(ExitCommandError, "failed to open database", cause))

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to open database: disk full")

	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "2 scenario(s) failed")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")), "untyped errors are failures")
}

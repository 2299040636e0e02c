package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faceoff/internal/difficulty"
	"github.com/roach88/faceoff/internal/expression"
)

func compileErr(t *testing.T, src string) *CompileError {
	t.Helper()
	_, err := CompileBytes([]byte(src), "test.cue")
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "expected CompileError, got %T: %v", err, err)
	return ce
}

func TestDefault_MatchesBuiltins(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	assert.Equal(t, expression.DefaultRules(), g.Catalog.Rules())
	assert.Equal(t, difficulty.DefaultCurve(), g.Curve)
	assert.Equal(t, DefaultRules(), g.Rules)
}

func TestCompileGame_Minimal(t *testing.T) {
	g, err := CompileBytes([]byte(`
		expressions: [{id: "jaw-open", when: {jawOpen: 0.7}}]
		stages: [{from: 0, time_ms: 1000, max_points: 5, pause_ms: 500}]
	`), "min.cue")
	require.NoError(t, err)

	require.Equal(t, 1, g.Catalog.Len())
	r := g.Catalog.At(0)
	assert.Equal(t, "jaw-open", r.DisplayName, "name defaults to id")
	assert.Equal(t, []expression.Condition{{Channel: "jawOpen", Threshold: 0.7}}, r.Conditions)

	require.Len(t, g.Curve, 1)
	assert.Equal(t, time.Second, g.Curve[0].TimeBudget)
	assert.Equal(t, 500*time.Millisecond, g.Curve[0].Pause)
	assert.Equal(t, DefaultRules(), g.Rules, "omitted settings use defaults")
}

func TestCompileGame_Settings(t *testing.T) {
	g, err := CompileBytes([]byte(`
		expressions: [{id: "smile", name: "Smile", when: {mouthSmileLeft: 0.5, mouthSmileRight: 0.5}}]
		stages: [{from: 0, time_ms: 2000, max_points: 10, pause_ms: 1300}]
		lives: 5
		game_over_delay_ms: 250
		rotate_frames: false
	`), "settings.cue")
	require.NoError(t, err)

	assert.Equal(t, Rules{Lives: 5, GameOverDelay: 250 * time.Millisecond, RotateFrames: false}, g.Rules)

	// Conditions keep declaration order.
	conds := g.Catalog.At(0).Conditions
	require.Len(t, conds, 2)
	assert.Equal(t, "mouthSmileLeft", conds[0].Channel)
	assert.Equal(t, "mouthSmileRight", conds[1].Channel)
}

func TestCompileGame_IntegerThreshold(t *testing.T) {
	g, err := CompileBytes([]byte(`
		expressions: [{id: "jaw-open", when: {jawOpen: 0}}]
		stages: [{from: 0, time_ms: 1000, max_points: 5, pause_ms: 500}]
	`), "int.cue")
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.Catalog.At(0).Conditions[0].Threshold)
}

func TestCompileGame_NFCDisplayName(t *testing.T) {
	// CUE escapes spell a decomposed e + combining acute accent.
	src := `expressions: [{id: "smile", name: "Souri\u0065\u0301", when: {mouthSmileLeft: 0.5}}]
stages: [{from: 0, time_ms: 1000, max_points: 5, pause_ms: 500}]`

	g, err := CompileBytes([]byte(src), "nfc.cue")
	require.NoError(t, err)
	assert.Equal(t, "Souri\u00e9", g.Catalog.At(0).DisplayName)
}

func TestCompileGame_Errors(t *testing.T) {
	stages := `stages: [{from: 0, time_ms: 1000, max_points: 5, pause_ms: 500}]`
	expr := `expressions: [{id: "jaw-open", when: {jawOpen: 0.7}}]`

	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing expressions", stages, "expressions"},
		{"empty expressions", `expressions: []` + "\n" + stages, "expressions"},
		{"missing id", `expressions: [{when: {jawOpen: 0.7}}]` + "\n" + stages, "id"},
		{"bad id", `expressions: [{id: "Jaw_Open", when: {jawOpen: 0.7}}]` + "\n" + stages, "id"},
		{"missing when", `expressions: [{id: "jaw-open"}]` + "\n" + stages, "when"},
		{"empty when", `expressions: [{id: "jaw-open", when: {}}]` + "\n" + stages, "when"},
		{"threshold out of range", `expressions: [{id: "jaw-open", when: {jawOpen: 1.5}}]` + "\n" + stages, "when"},
		{"threshold not a number", `expressions: [{id: "jaw-open", when: {jawOpen: "high"}}]` + "\n" + stages, "when"},
		{"duplicate id", `expressions: [{id: "a", when: {jawOpen: 0.7}}, {id: "a", when: {cheekPuff: 0.4}}]` + "\n" + stages, "expressions"},
		{"unknown partner", `expressions: [{id: "a", when: {jawOpen: 0.7}, conflicts_with: "b"}]` + "\n" + stages, "expressions"},
		{"missing stages", expr, "stages"},
		{"stage missing field", expr + "\n" + `stages: [{from: 0, time_ms: 1000, max_points: 5}]`, "pause_ms"},
		{"first stage not zero", expr + "\n" + `stages: [{from: 1, time_ms: 1000, max_points: 5, pause_ms: 500}]`, "stages"},
		{"budget increases", expr + "\n" + `stages: [{from: 0, time_ms: 1000, max_points: 5, pause_ms: 500}, {from: 3, time_ms: 2000, max_points: 5, pause_ms: 500}]`, "stages"},
		{"zero lives", expr + "\n" + stages + "\nlives: 0", "lives"},
		{"negative delay", expr + "\n" + stages + "\ngame_over_delay_ms: -1", "game_over_delay_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := compileErr(t, tt.src)
			assert.Equal(t, tt.field, ce.Field)
			assert.NotEmpty(t, ce.Message)
		})
	}
}

func TestCompileGame_SyntaxError(t *testing.T) {
	_, err := CompileBytes([]byte(`expressions: [`), "broken.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestCompileGame_FromValue(t *testing.T) {
	v := cuecontext.New().CompileBytes(DefaultSource())
	g, err := CompileGame(v)
	require.NoError(t, err)
	assert.Equal(t, 8, g.Catalog.Len())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.cue")
	require.NoError(t, os.WriteFile(path, DefaultSource(), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, len(g.Curve))

	_, err = LoadFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "lives", Message: "lives must be at least 1"}
	assert.Equal(t, "lives: lives must be at least 1", err.Error())
}

package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/faceoff/internal/difficulty"
	"github.com/roach88/faceoff/internal/expression"
)

//go:embed default.cue
var defaultCUE []byte

// DefaultFilename labels positions in the embedded definition.
const DefaultFilename = "default.cue"

// Rules are the session-level settings of a game definition.
type Rules struct {
	Lives         int           `json:"lives"`
	GameOverDelay time.Duration `json:"game_over_delay"`
	RotateFrames  bool          `json:"rotate_frames"`
}

// DefaultRules returns the settings used when a definition omits them.
func DefaultRules() Rules {
	return Rules{
		Lives:         3,
		GameOverDelay: time.Second,
		RotateFrames:  true,
	}
}

// Game is a compiled game definition.
type Game struct {
	Catalog *expression.Catalog
	Curve   difficulty.Curve
	Rules   Rules
}

// ruleIDPattern matches kebab-case identifiers.
var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Default compiles the embedded definition.
func Default() (*Game, error) {
	return CompileBytes(defaultCUE, DefaultFilename)
}

// DefaultSource returns the embedded definition text.
func DefaultSource() []byte {
	out := make([]byte, len(defaultCUE))
	copy(out, defaultCUE)
	return out
}

// LoadFile reads and compiles a definition from disk.
func LoadFile(path string) (*Game, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game definition: %w", err)
	}
	return CompileBytes(src, path)
}

// CompileBytes compiles definition source. filename is used in error positions.
func CompileBytes(src []byte, filename string) (*Game, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileGame(v)
}

// CompileGame parses a CUE value into a Game.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func CompileGame(v cue.Value) (*Game, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rules, err := parseExpressions(v)
	if err != nil {
		return nil, err
	}
	catalog, err := expression.NewCatalog(rules)
	if err != nil {
		return nil, &CompileError{
			Field:   "expressions",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("expressions")).Pos(),
		}
	}

	curve, err := parseStages(v)
	if err != nil {
		return nil, err
	}
	if err := curve.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "stages",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("stages")).Pos(),
		}
	}

	settings, err := parseRules(v)
	if err != nil {
		return nil, err
	}

	return &Game{Catalog: catalog, Curve: curve, Rules: settings}, nil
}

// parseExpressions parses the expressions list (required, at least one).
func parseExpressions(v cue.Value) ([]expression.Rule, error) {
	listVal := v.LookupPath(cue.ParsePath("expressions"))
	if !listVal.Exists() {
		return nil, &CompileError{
			Field:   "expressions",
			Message: "expressions is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []expression.Rule
	for iter.Next() {
		rule, err := parseExpression(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, &CompileError{
			Field:   "expressions",
			Message: "at least one expression is required",
			Pos:     listVal.Pos(),
		}
	}
	return rules, nil
}

func parseExpression(v cue.Value) (expression.Rule, error) {
	var rule expression.Rule

	id, err := requiredString(v, "id")
	if err != nil {
		return rule, err
	}
	if !ruleIDPattern.MatchString(id) {
		return rule, &CompileError{
			Field:   "id",
			Message: fmt.Sprintf("expression id %q must be kebab-case", id),
			Pos:     v.LookupPath(cue.ParsePath("id")).Pos(),
		}
	}
	rule.ID = id

	name, ok, err := optionalString(v, "name")
	if err != nil {
		return rule, err
	}
	if ok {
		rule.DisplayName = norm.NFC.String(name)
	}

	partner, ok, err := optionalString(v, "conflicts_with")
	if err != nil {
		return rule, err
	}
	if ok {
		rule.ConflictsWith = partner
	}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return rule, &CompileError{
			Field:   "when",
			Message: fmt.Sprintf("expression %s: when is required", id),
			Pos:     v.Pos(),
		}
	}

	fields, err := whenVal.Fields()
	if err != nil {
		return rule, formatCUEError(err)
	}
	for fields.Next() {
		threshold, err := fields.Value().Float64()
		if err != nil {
			return rule, &CompileError{
				Field:   "when",
				Message: fmt.Sprintf("expression %s: threshold for %s must be a number", id, fields.Label()),
				Pos:     fields.Value().Pos(),
			}
		}
		if threshold < 0 || threshold >= 1 {
			return rule, &CompileError{
				Field:   "when",
				Message: fmt.Sprintf("expression %s: threshold for %s must be in [0,1), got %v", id, fields.Label(), threshold),
				Pos:     fields.Value().Pos(),
			}
		}
		rule.Conditions = append(rule.Conditions, expression.Condition{
			Channel:   fields.Label(),
			Threshold: threshold,
		})
	}

	if len(rule.Conditions) == 0 {
		return rule, &CompileError{
			Field:   "when",
			Message: fmt.Sprintf("expression %s: at least one channel condition is required", id),
			Pos:     whenVal.Pos(),
		}
	}
	return rule, nil
}

// parseStages parses the difficulty table (required, at least one stage).
func parseStages(v cue.Value) (difficulty.Curve, error) {
	listVal := v.LookupPath(cue.ParsePath("stages"))
	if !listVal.Exists() {
		return nil, &CompileError{
			Field:   "stages",
			Message: "stages is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var curve difficulty.Curve
	for iter.Next() {
		sv := iter.Value()

		from, err := requiredInt(sv, "from")
		if err != nil {
			return nil, err
		}
		budget, err := requiredInt(sv, "time_ms")
		if err != nil {
			return nil, err
		}
		maxPoints, err := requiredInt(sv, "max_points")
		if err != nil {
			return nil, err
		}
		pause, err := requiredInt(sv, "pause_ms")
		if err != nil {
			return nil, err
		}

		curve = append(curve, difficulty.Stage{
			Threshold:  int(from),
			TimeBudget: time.Duration(budget) * time.Millisecond,
			MaxPoints:  int(maxPoints),
			Pause:      time.Duration(pause) * time.Millisecond,
		})
	}
	return curve, nil
}

// parseRules reads the optional session settings.
func parseRules(v cue.Value) (Rules, error) {
	rules := DefaultRules()

	if lv := v.LookupPath(cue.ParsePath("lives")); lv.Exists() {
		n, err := lv.Int64()
		if err != nil {
			return rules, formatCUEError(err)
		}
		if n < 1 {
			return rules, &CompileError{Field: "lives", Message: "lives must be at least 1", Pos: lv.Pos()}
		}
		rules.Lives = int(n)
	}

	if dv := v.LookupPath(cue.ParsePath("game_over_delay_ms")); dv.Exists() {
		ms, err := dv.Int64()
		if err != nil {
			return rules, formatCUEError(err)
		}
		if ms < 0 {
			return rules, &CompileError{Field: "game_over_delay_ms", Message: "delay must not be negative", Pos: dv.Pos()}
		}
		rules.GameOverDelay = time.Duration(ms) * time.Millisecond
	}

	if rv := v.LookupPath(cue.ParsePath("rotate_frames")); rv.Exists() {
		on, err := rv.Bool()
		if err != nil {
			return rules, formatCUEError(err)
		}
		rules.RotateFrames = on
	}

	return rules, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

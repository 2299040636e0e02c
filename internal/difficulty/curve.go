// Package difficulty maps the number of challenges shown so far to the
// timing and scoring parameters of the next challenge.
package difficulty

import (
	"fmt"
	"time"
)

// Stage is one row of the difficulty table.
type Stage struct {
	// Threshold is the challenges-shown count at which the stage becomes active.
	Threshold int `json:"threshold"`

	// TimeBudget is how long the player has to perform the expression.
	TimeBudget time.Duration `json:"time_budget"`

	// MaxPoints is awarded for an instant success.
	MaxPoints int `json:"max_points"`

	// Pause is the gap before the next challenge is shown.
	Pause time.Duration `json:"pause"`
}

// Curve is an ordered stage table. Validate before use.
type Curve []Stage

// DefaultCurve returns the built-in four-stage table.
func DefaultCurve() Curve {
	return Curve{
		{Threshold: 0, TimeBudget: 2000 * time.Millisecond, MaxPoints: 10, Pause: 1300 * time.Millisecond},
		{Threshold: 9, TimeBudget: 1500 * time.Millisecond, MaxPoints: 50, Pause: 1000 * time.Millisecond},
		{Threshold: 17, TimeBudget: 1100 * time.Millisecond, MaxPoints: 100, Pause: 800 * time.Millisecond},
		{Threshold: 26, TimeBudget: 900 * time.Millisecond, MaxPoints: 400, Pause: 600 * time.Millisecond},
	}
}

// Validate checks the table is usable and monotonically harder:
// thresholds start at 0 and strictly increase, budgets are positive and
// never increase, point caps never decrease.
func (c Curve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("difficulty curve requires at least one stage")
	}
	if c[0].Threshold != 0 {
		return fmt.Errorf("first stage threshold must be 0, got %d", c[0].Threshold)
	}
	for i, s := range c {
		if s.TimeBudget <= 0 {
			return fmt.Errorf("stage %d: time budget must be positive", i)
		}
		if s.MaxPoints < 0 {
			return fmt.Errorf("stage %d: max points must not be negative", i)
		}
		if s.Pause < 0 {
			return fmt.Errorf("stage %d: pause must not be negative", i)
		}
		if i == 0 {
			continue
		}
		prev := c[i-1]
		if s.Threshold <= prev.Threshold {
			return fmt.Errorf("stage %d: threshold %d must exceed %d", i, s.Threshold, prev.Threshold)
		}
		if s.TimeBudget > prev.TimeBudget {
			return fmt.Errorf("stage %d: time budget %s exceeds previous %s", i, s.TimeBudget, prev.TimeBudget)
		}
		if s.MaxPoints < prev.MaxPoints {
			return fmt.Errorf("stage %d: max points %d below previous %d", i, s.MaxPoints, prev.MaxPoints)
		}
	}
	return nil
}

// ParametersFor returns the stage with the greatest threshold <= totalShown.
// Counts below the first threshold get the first stage.
func (c Curve) ParametersFor(totalShown int) Stage {
	active := c[0]
	for _, s := range c[1:] {
		if s.Threshold > totalShown {
			break
		}
		active = s
	}
	return active
}

// StageIndex returns the position of ParametersFor(totalShown) in the table.
func (c Curve) StageIndex(totalShown int) int {
	idx := 0
	for i := 1; i < len(c); i++ {
		if c[i].Threshold > totalShown {
			break
		}
		idx = i
	}
	return idx
}

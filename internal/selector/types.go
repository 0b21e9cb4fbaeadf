package selector

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConstraints is wrapped by every precondition failure returned
// from [Constraints.Validate], [Select] and [SelectDetailed].
var ErrInvalidConstraints = errors.New("invalid cut constraints")

// Constraints is the window configuration for one selection pass.
// All values are in seconds.
type Constraints struct {
	PeriodMin    float64 // Shortest allowed gap between consecutive cuts.
	PeriodMax    float64 // Longest allowed gap between consecutive cuts.
	TargetPeriod float64 // Preferred gap; clamped up to PeriodMin.
	Strict       bool    // Widen by Grace instead of the nearest-beat fallback.
	Grace        float64 // Window widening on both sides (strict only).
	MinCutGap    float64 // Minimum spacing between consecutive chosen cuts.
	Phase        float64 // Signed offset added to every beat before selection.
}

// Validate reports precondition violations. A zero PeriodMin is rejected
// because the cursor could never advance past a dense window.
func (c Constraints) Validate() error {
	for name, v := range map[string]float64{
		"period_min":    c.PeriodMin,
		"period_max":    c.PeriodMax,
		"target_period": c.TargetPeriod,
		"grace":         c.Grace,
		"min_cut_gap":   c.MinCutGap,
		"phase":         c.Phase,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConstraints, name)
		}
	}
	if c.PeriodMin <= 0 {
		return fmt.Errorf("%w: period_min must be positive (got %g)", ErrInvalidConstraints, c.PeriodMin)
	}
	if c.PeriodMin > c.PeriodMax {
		return fmt.Errorf("%w: period_min %g exceeds period_max %g", ErrInvalidConstraints, c.PeriodMin, c.PeriodMax)
	}
	if c.Grace < 0 {
		return fmt.Errorf("%w: grace must not be negative (got %g)", ErrInvalidConstraints, c.Grace)
	}
	if c.MinCutGap < 0 {
		return fmt.Errorf("%w: min_cut_gap must not be negative (got %g)", ErrInvalidConstraints, c.MinCutGap)
	}
	return nil
}

// target returns TargetPeriod clamped to at least PeriodMin.
func (c Constraints) target() float64 {
	return math.Max(c.PeriodMin, c.TargetPeriod)
}

// Branch records which rule produced a cut.
type Branch int

const (
	BranchWindow  Branch = iota // Found inside [t+PeriodMin, t+PeriodMax].
	BranchGrace                 // Found only after widening by Grace.
	BranchNearest               // Non-strict fallback to the globally nearest beat.
)

func (b Branch) String() string {
	switch b {
	case BranchWindow:
		return "window"
	case BranchGrace:
		return "grace"
	case BranchNearest:
		return "nearest"
	default:
		return fmt.Sprintf("Branch(%d)", int(b))
	}
}

// Cut is one chosen timestamp together with the branch that selected it.
type Cut struct {
	Time   float64
	Branch Branch
}

// Times extracts the timestamps from cuts.
func Times(cuts []Cut) []float64 {
	out := make([]float64, len(cuts))
	for i, c := range cuts {
		out[i] = c.Time
	}
	return out
}

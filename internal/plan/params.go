package plan

import (
	"github.com/backmassage/beatcut/internal/selector"
	"github.com/backmassage/beatcut/internal/timeline"
)

// Params is every knob that influences a plan, in its persisted form.
type Params struct {
	// Selection
	PeriodMin    float64 `json:"period_min"`
	PeriodMax    float64 `json:"period_max"`
	TargetPeriod float64 `json:"target_period"`
	Strict       bool    `json:"strict"`
	Grace        float64 `json:"grace"`
	MinCutGap    float64 `json:"min_gap"`
	Phase        float64 `json:"phase"`
	AllBeats     bool    `json:"all_beats"`

	// Timeline
	FPS                int      `json:"fps"`
	Transition         string   `json:"transition"`
	TransitionDuration float64  `json:"xfade"`
	MinEffective       float64  `json:"xfade_min"`
	Margin             *float64 `json:"margin,omitempty"` // nil means timeline.DefaultMargin.
	Align              string   `json:"align"`
	Quantize           string   `json:"quantize"`
	Fallback           string   `json:"fallback_style"`
	FallbackDuration   float64  `json:"fallback_duration"`
	Hardcuts           bool     `json:"hardcuts"`
}

// Constraints projects the selection fields.
func (p Params) Constraints() selector.Constraints {
	return selector.Constraints{
		PeriodMin:    p.PeriodMin,
		PeriodMax:    p.PeriodMax,
		TargetPeriod: p.TargetPeriod,
		Strict:       p.Strict,
		Grace:        p.Grace,
		MinCutGap:    p.MinCutGap,
		Phase:        p.Phase,
	}
}

// Timeline projects the planning fields. The tail segment follows the
// target period.
func (p Params) Timeline() timeline.Config {
	margin := timeline.DefaultMargin
	if p.Margin != nil {
		margin = *p.Margin
	}
	fallback := timeline.Effect(p.Fallback)
	if fallback == "" {
		fallback = timeline.EffectNone
	}
	return timeline.Config{
		FPS:                    p.FPS,
		TransitionDuration:     p.TransitionDuration,
		MinEffectiveTransition: p.MinEffective,
		Margin:                 margin,
		Align:                  timeline.Align(p.Align),
		Quantize:               timeline.Quantize(p.Quantize),
		FallbackStyle:          fallback,
		FallbackDuration:       p.FallbackDuration,
		TailDuration:           timeline.TailFor(p.TargetPeriod),
		Hardcuts:               p.Hardcuts,
	}
}

// Clone returns a copy of p that shares no pointers with it, so decoding a
// request over the copy leaves p untouched.
func (p Params) Clone() Params {
	if p.Margin != nil {
		m := *p.Margin
		p.Margin = &m
	}
	return p
}

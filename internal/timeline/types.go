package timeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every configuration error from [Config.Validate].
var ErrInvalidConfig = errors.New("invalid timeline config")

// Quantize selects how a raw duration is snapped to the frame grid.
type Quantize string

const (
	QuantizeNearest Quantize = "nearest" // Round to the nearest frame (default).
	QuantizeFloor   Quantize = "floor"   // Never lengthen a segment.
	QuantizeCeil    Quantize = "ceil"    // Never shorten a segment.
)

// Align selects where a crossfade lands relative to its cut.
type Align string

const (
	AlignMidpoint Align = "midpoint" // Blend centered on the cut.
	AlignEnd      Align = "end"      // Blend finishes on the cut.
)

// Kind is the boundary transition type.
type Kind string

const (
	KindCrossfade Kind = "crossfade"
	KindHardcut   Kind = "hardcut"
)

// Effect is the accent drawn on a hard cut instead of a blend.
type Effect string

const (
	EffectNone       Effect = "none"
	EffectPulse      Effect = "pulse"
	EffectBloom      Effect = "bloom"
	EffectWhitePop   Effect = "whitepop"
	EffectBlackFlash Effect = "blackflash"
)

// ParseEffect maps a user string onto an Effect.
func ParseEffect(s string) (Effect, error) {
	switch e := Effect(s); e {
	case EffectNone, EffectPulse, EffectBloom, EffectWhitePop, EffectBlackFlash:
		return e, nil
	case "":
		return EffectNone, nil
	}
	return "", fmt.Errorf("%w: unknown fallback style %q (use none, pulse, bloom, whitepop or blackflash)", ErrInvalidConfig, s)
}

// DefaultMargin keeps every crossfade strictly shorter than both neighbors.
const DefaultMargin = 0.05

// Config parameterizes one planning call.
type Config struct {
	FPS                    int
	TransitionDuration     float64 // Requested crossfade length in seconds.
	MinEffectiveTransition float64 // Shorter clamped crossfades become hard cuts.
	Margin                 float64 // Subtracted from each neighbor when clamping.
	Align                  Align
	Quantize               Quantize
	FallbackStyle          Effect
	FallbackDuration       float64
	TailDuration           float64 // Closing segment after the last cut.
	Hardcuts               bool    // Force every boundary to a hard cut.
}

// TailFor returns the closing-segment length used after the last cut:
// half the target period, never under 0.2 s.
func TailFor(targetPeriod float64) float64 {
	return math.Max(0.2, targetPeriod/2)
}

// Validate reports configuration errors before any planning work.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive (got %d)", ErrInvalidConfig, c.FPS)
	}
	for name, v := range map[string]float64{
		"transition_duration":      c.TransitionDuration,
		"min_effective_transition": c.MinEffectiveTransition,
		"margin":                   c.Margin,
		"fallback_duration":        c.FallbackDuration,
		"tail_duration":            c.TailDuration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number (got %g)", ErrInvalidConfig, name, v)
		}
	}
	switch c.Align {
	case AlignMidpoint, AlignEnd:
	default:
		return fmt.Errorf("%w: unknown align %q (use midpoint or end)", ErrInvalidConfig, c.Align)
	}
	switch c.Quantize {
	case QuantizeNearest, QuantizeFloor, QuantizeCeil:
	default:
		return fmt.Errorf("%w: unknown quantize %q (use nearest, floor or ceil)", ErrInvalidConfig, c.Quantize)
	}
	if _, err := ParseEffect(string(c.FallbackStyle)); err != nil {
		return err
	}
	return nil
}

// Segment is one still on the output timeline.
type Segment struct {
	Index     int     `json:"index"`
	Requested float64 `json:"requested"` // Raw duration before quantization.
	Frames    int     `json:"frames"`
	Duration  float64 `json:"duration"` // Frames / fps.
	Start     float64 `json:"start"`    // Position on the frame timeline after earlier overlaps.
	In        int     `json:"in"`       // Incoming boundary index, -1 for the first segment.
	Out       int     `json:"out"`      // Outgoing boundary index, -1 for the last segment.
}

// Boundary is the junction between segment Index and Index+1.
type Boundary struct {
	Index            int     `json:"index"`
	Kind             Kind    `json:"kind"`
	Frames           int     `json:"frames"`   // Crossfade overlap, 0 for hard cuts.
	Duration         float64 `json:"duration"` // Frames / fps.
	Offset           float64 `json:"offset"`   // Where the blend starts on the output timeline.
	OnBeat           float64 `json:"on_beat"`  // Perceptual cut instant for overlays.
	Fallback         Effect  `json:"fallback"`
	FallbackStart    float64 `json:"fallback_start,omitempty"`
	FallbackDuration float64 `json:"fallback_duration,omitempty"`
}

// RenderPlan is the complete, immutable output of planning.
type RenderPlan struct {
	FPS           int        `json:"fps"`
	Segments      []Segment  `json:"segments"`
	Boundaries    []Boundary `json:"boundaries"`
	TotalFrames   int        `json:"total_frames"`
	TotalDuration float64    `json:"total_duration"`
}

// Empty reports whether the plan holds no segments.
func (p *RenderPlan) Empty() bool {
	return p == nil || len(p.Segments) == 0
}

// OnBeatTimes returns the on-beat instant of every boundary in order.
func (p *RenderPlan) OnBeatTimes() []float64 {
	if p == nil {
		return nil
	}
	out := make([]float64, len(p.Boundaries))
	for i, b := range p.Boundaries {
		out[i] = b.OnBeat
	}
	return out
}

// Crossfades counts boundaries that blend.
func (p *RenderPlan) Crossfades() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, b := range p.Boundaries {
		if b.Kind == KindCrossfade {
			n++
		}
	}
	return n
}

// AsHardcuts returns a copy of p with every crossfade turned into a hard
// cut. Segments keep their frames; starts, on-beat instants and the total
// are recomputed for the longer timeline. Existing hard-cut accents move
// with their boundary.
func (p *RenderPlan) AsHardcuts() *RenderPlan {
	if p.Empty() || p.Crossfades() == 0 {
		return p
	}
	out := &RenderPlan{
		FPS:        p.FPS,
		Segments:   append([]Segment(nil), p.Segments...),
		Boundaries: append([]Boundary(nil), p.Boundaries...),
	}
	cum := 0
	for i := range out.Segments {
		out.Segments[i].Start = FramesToSeconds(cum, p.FPS)
		cum += out.Segments[i].Frames
		if i >= len(out.Boundaries) {
			continue
		}
		b := &out.Boundaries[i]
		at := FramesToSeconds(cum, p.FPS)
		if b.Kind == KindCrossfade {
			b.Kind = KindHardcut
			b.Frames, b.Duration = 0, 0
			b.Fallback = EffectNone
		}
		b.Offset, b.OnBeat = at, at
		if b.Fallback != EffectNone {
			b.FallbackStart = at
		}
	}
	out.TotalFrames = cum
	out.TotalDuration = FramesToSeconds(cum, p.FPS)
	return out
}

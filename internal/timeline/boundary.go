package timeline

import "math"

// TransitionParams is the per-boundary slice of [Config] that
// [ClassifyBoundary] needs.
type TransitionParams struct {
	Requested        float64
	MinEffective     float64
	Margin           float64
	FPS              int // When positive a crossfade is floored to whole frames.
	Hardcuts         bool
	Fallback         Effect
	FallbackDuration float64
}

// Params extracts the boundary parameters from a planning config.
func (c Config) Params() TransitionParams {
	return TransitionParams{
		Requested:        c.TransitionDuration,
		MinEffective:     c.MinEffectiveTransition,
		Margin:           c.Margin,
		FPS:              c.FPS,
		Hardcuts:         c.Hardcuts,
		Fallback:         c.FallbackStyle,
		FallbackDuration: c.FallbackDuration,
	}
}

// BoundaryDecision is the outcome of classifying one boundary.
type BoundaryDecision struct {
	Kind             Kind
	Duration         float64 // Effective crossfade length, 0 for hard cuts.
	Frames           int     // Duration in frames when FPS was given.
	Fallback         Effect  // Accent for hard cuts, EffectNone otherwise.
	FallbackDuration float64
}

// ClassifyBoundary decides how to join a segment of prev seconds to one of
// next seconds. The crossfade is clamped so it stays at least Margin shorter
// than either neighbor; a clamped length under MinEffective becomes a hard
// cut. A crossfade is then floored to whole frames when FPS is set. The
// function is pure.
func ClassifyBoundary(prev, next float64, p TransitionParams) BoundaryDecision {
	hard := BoundaryDecision{Kind: KindHardcut, Fallback: EffectNone}
	if p.Fallback != "" && p.Fallback != EffectNone && p.FallbackDuration > 0 {
		hard.Fallback = p.Fallback
		hard.FallbackDuration = p.FallbackDuration
	}
	if p.Hardcuts {
		return hard
	}

	td := math.Min(p.Requested, math.Min(prev-p.Margin, next-p.Margin))
	if td <= 0 || td < p.MinEffective-frameEps {
		return hard
	}

	// The overlap is floored to whole frames only once the crossfade is
	// decided, and never drops below one frame.
	frames := 0
	if p.FPS > 0 {
		frames = max(1, floorFrames(td, p.FPS))
		td = FramesToSeconds(frames, p.FPS)
	}
	return BoundaryDecision{
		Kind:     KindCrossfade,
		Duration: td,
		Frames:   frames,
		Fallback: EffectNone,
	}
}

package timeline

import (
	"fmt"
	"math"
)

// Plan builds the render plan for cuts. The segments are the gaps between
// consecutive cuts starting from 0, followed by a closing segment of
// cfg.TailDuration. Non-increasing cuts are skipped. No cuts yields an
// empty plan and no error.
func Plan(cuts []float64, cfg Config) (*RenderPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cuts) == 0 {
		return emptyPlan(cfg.FPS), nil
	}
	return build(Durations(cuts, cfg.TailDuration), cfg), nil
}

// PlanDurations builds a render plan from explicit segment durations, as
// stored in a replayed plan file.
func PlanDurations(durations []float64, cfg Config) (*RenderPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, d := range durations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, fmt.Errorf("%w: duration %d must be a non-negative number (got %g)", ErrInvalidConfig, i, d)
		}
	}
	if len(durations) == 0 {
		return emptyPlan(cfg.FPS), nil
	}
	return build(durations, cfg), nil
}

// Durations converts cut timestamps into raw segment durations with a
// closing segment of tail seconds.
func Durations(cuts []float64, tail float64) []float64 {
	out := make([]float64, 0, len(cuts)+1)
	prev := 0.0
	for _, c := range cuts {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= prev {
			continue
		}
		out = append(out, c-prev)
		prev = c
	}
	return append(out, tail)
}

func emptyPlan(fps int) *RenderPlan {
	return &RenderPlan{FPS: fps, Segments: []Segment{}, Boundaries: []Boundary{}}
}

// build runs the three planning steps over validated raw durations.
func build(raw []float64, cfg Config) *RenderPlan {
	fps := cfg.FPS
	n := len(raw)

	// Step 1: quantize every segment on its own.
	segs := make([]Segment, n)
	for i, d := range raw {
		frames := QuantizeFrames(d, fps, cfg.Quantize)
		segs[i] = Segment{
			Index:     i,
			Requested: d,
			Frames:    frames,
			Duration:  FramesToSeconds(frames, fps),
			In:        i - 1,
			Out:       i,
		}
	}
	segs[n-1].Out = -1

	// Steps 2 and 3: classify boundaries while walking the frame timeline.
	params := cfg.Params()
	bounds := make([]Boundary, 0, n-1)
	cum := 0
	for i := range segs {
		segs[i].Start = FramesToSeconds(cum, fps)
		cum += segs[i].Frames
		if i == n-1 {
			break
		}

		d := ClassifyBoundary(segs[i].Duration, segs[i+1].Duration, params)
		at := FramesToSeconds(cum, fps)
		b := Boundary{
			Index:    i,
			Kind:     d.Kind,
			Offset:   at,
			OnBeat:   at,
			Fallback: d.Fallback,
		}
		if d.Kind == KindCrossfade {
			b.Frames = d.Frames
			b.Duration = d.Duration
			switch cfg.Align {
			case AlignEnd:
				b.Offset = math.Max(0, at-d.Duration)
			default:
				b.Offset = math.Max(0, at-d.Duration/2)
			}
			cum -= d.Frames
		} else if d.Fallback != EffectNone {
			b.FallbackStart = at
			b.FallbackDuration = d.FallbackDuration
		}
		bounds = append(bounds, b)
	}

	return &RenderPlan{
		FPS:           fps,
		Segments:      segs,
		Boundaries:    bounds,
		TotalFrames:   cum,
		TotalDuration: FramesToSeconds(cum, fps),
	}
}

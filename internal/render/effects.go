package render

import (
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/backmassage/beatcut/internal/config"
	"github.com/backmassage/beatcut/internal/timeline"
)

// between is the timeline-editing expression active over [start, start+d].
func between(start, d float64) string {
	return fmt.Sprintf("between(t,%s,%s)", seconds(start), seconds(start+d))
}

// applyAccents draws the fallback accent of every hard cut that has one.
func applyAccents(s *ffmpeg.Stream, cfg *config.Config, rp *timeline.RenderPlan) *ffmpeg.Stream {
	for _, b := range rp.Boundaries {
		if b.Kind != timeline.KindHardcut || b.Fallback == timeline.EffectNone || b.FallbackDuration <= 0 {
			continue
		}
		s = accent(s, cfg, b.Fallback, between(b.FallbackStart, b.FallbackDuration))
	}
	return s
}

func accent(s *ffmpeg.Stream, cfg *config.Config, e timeline.Effect, enable string) *ffmpeg.Stream {
	switch e {
	case timeline.EffectWhitePop:
		return fill(s, "white@1.0", enable)
	case timeline.EffectBlackFlash:
		return fill(s, "black@1.0", enable)
	case timeline.EffectPulse:
		return s.Filter("eq", ffmpeg.Args{}, ffmpeg.KwArgs{
			"saturation": fmt.Sprintf("%.3f", cfg.PulseSaturation),
			"brightness": fmt.Sprintf("%.3f", cfg.PulseBrightness),
			"enable":     enable,
		})
	case timeline.EffectBloom:
		return s.Filter("gblur", ffmpeg.Args{}, ffmpeg.KwArgs{
			"sigma":  fmt.Sprintf("%.2f", cfg.BloomSigma),
			"steps":  1,
			"enable": enable,
		})
	}
	return s
}

func fill(s *ffmpeg.Stream, color, enable string) *ffmpeg.Stream {
	return s.Filter("drawbox", ffmpeg.Args{}, ffmpeg.KwArgs{
		"x": 0, "y": 0, "w": "iw", "h": "ih",
		"color":  color,
		"t":      "fill",
		"enable": enable,
	})
}

// applyMarkers draws a thin red bar at every on-beat instant.
func applyMarkers(s *ffmpeg.Stream, cfg *config.Config, rp *timeline.RenderPlan) *ffmpeg.Stream {
	if cfg.MarkerDuration <= 0 {
		return s
	}
	for _, t := range rp.OnBeatTimes() {
		s = s.Filter("drawbox", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x": "iw/2-5", "y": 0, "w": 10, "h": "ih",
			"color":  "red@1.0",
			"t":      "fill",
			"enable": between(t, cfg.MarkerDuration),
		})
	}
	return s
}

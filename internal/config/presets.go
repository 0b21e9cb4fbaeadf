package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/beatcut/internal/timeline"
)

// Preset is a named bundle of planning defaults. Nil fields leave the
// config untouched.
type Preset struct {
	Align    *string   `yaml:"align,omitempty"`
	Xfade    *float64  `yaml:"xfade,omitempty"`
	XfadeMin *float64  `yaml:"xfade_min,omitempty"`
	Phase    *float64  `yaml:"phase,omitempty"`
	Period   []float64 `yaml:"period,omitempty"` // [min, max]
	Target   *float64  `yaml:"target,omitempty"`
	Quantize *string   `yaml:"quantize,omitempty"`
	AllBeats *bool     `yaml:"all_beats,omitempty"`
	Fallback *string   `yaml:"fallback_style,omitempty"`
}

// Keys that a preset may set. A key the user set explicitly (flag or
// environment) is never overridden.
const (
	keyAlign    = "align"
	keyXfade    = "xfade"
	keyXfadeMin = "xfade-min"
	keyPhase    = "phase"
	keyPeriod   = "period"
	keyTarget   = "target"
	keyQuantize = "quantize"
	keyAllBeats = "all-beats"
	keyFallback = "fallback-style"
)

func ptr[T any](v T) *T { return &v }

// builtinPresets are the named editing styles selectable with --preset.
var builtinPresets = map[string]Preset{
	"music-video": {
		Align: ptr("midpoint"), Xfade: ptr(0.6), Phase: ptr(-0.03),
		Period: []float64{5, 10}, Target: ptr(7.5), Quantize: ptr("nearest"),
	},
	"hypercut": {
		Align: ptr("end"), Xfade: ptr(0.25), Phase: ptr(-0.01),
		Period: []float64{0.7, 2.0}, Target: ptr(1.2), Quantize: ptr("floor"),
		AllBeats: ptr(true),
	},
	"slow-cinematic": {
		Align: ptr("midpoint"), Xfade: ptr(1.2), Phase: ptr(-0.01),
		Period: []float64{8, 16}, Target: ptr(12.0), Quantize: ptr("nearest"),
	},
	"documentary": {
		Align: ptr("end"), Xfade: ptr(0.3), Phase: ptr(0.0),
		Period: []float64{6, 12}, Target: ptr(9.0), Quantize: ptr("floor"),
	},
	"edm-strobe": {
		Align: ptr("midpoint"), Xfade: ptr(0.3), Phase: ptr(-0.02),
		Period: []float64{0.5, 1.2}, Target: ptr(0.75), Quantize: ptr("nearest"),
		AllBeats: ptr(true),
	},
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPresetFile reads extra presets from a YAML mapping of name to preset.
func LoadPresetFile(path string) (map[string]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	var out map[string]Preset
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}
	for name, p := range out {
		if p.Period != nil && len(p.Period) != 2 {
			return nil, fmt.Errorf("preset %q: period needs exactly [min, max]", name)
		}
	}
	return out, nil
}

// LookupPreset resolves name against extra presets first, then built-ins.
func LookupPreset(name string, extra map[string]Preset) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := extra[key]; ok {
		return p, nil
	}
	if p, ok := builtinPresets[key]; ok {
		return p, nil
	}
	return Preset{}, fmt.Errorf("unknown preset %q (built-in: %s)", name, strings.Join(PresetNames(), ", "))
}

// ApplyPreset copies preset values into cfg for every key not in explicit,
// then raises MinCutGap so two crossfades never overlap.
func ApplyPreset(cfg *Config, p Preset, explicit map[string]bool) {
	set := func(key string) bool { return !explicit[key] }

	if p.Align != nil && set(keyAlign) {
		cfg.Align = timeline.Align(*p.Align)
	}
	if p.Xfade != nil && set(keyXfade) {
		cfg.TransitionDuration = *p.Xfade
	}
	if p.XfadeMin != nil && set(keyXfadeMin) {
		cfg.MinEffective = *p.XfadeMin
	}
	if p.Phase != nil && set(keyPhase) {
		cfg.Phase = *p.Phase
	}
	if len(p.Period) == 2 && set(keyPeriod) {
		cfg.PeriodMin, cfg.PeriodMax = p.Period[0], p.Period[1]
	}
	if p.Target != nil && set(keyTarget) {
		cfg.TargetPeriod = *p.Target
	}
	if p.Quantize != nil && set(keyQuantize) {
		cfg.Quantize = timeline.Quantize(*p.Quantize)
	}
	if p.AllBeats != nil && *p.AllBeats && set(keyAllBeats) {
		cfg.AllBeats = true
	}
	if p.Fallback != nil && set(keyFallback) {
		cfg.FallbackStyle = timeline.Effect(*p.Fallback)
	}

	cfg.MinCutGap = math.Max(cfg.MinCutGap, 2*cfg.TransitionDuration+0.05)
}

// resolvePreset applies cfg.Preset (if any) using cfg.PresetFile for extras.
func resolvePreset(cfg *Config, explicit map[string]bool) error {
	if cfg.Preset == "" {
		return nil
	}
	var extra map[string]Preset
	if cfg.PresetFile != "" {
		var err error
		if extra, err = LoadPresetFile(cfg.PresetFile); err != nil {
			return err
		}
	}
	p, err := LookupPreset(cfg.Preset, extra)
	if err != nil {
		return err
	}
	ApplyPreset(cfg, p, explicit)
	return nil
}

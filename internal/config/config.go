// Package config holds runtime configuration: defaults, presets, environment
// overlay, CLI flag parsing and validation.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/backmassage/beatcut/internal/plan"
	"github.com/backmassage/beatcut/internal/selector"
	"github.com/backmassage/beatcut/internal/store"
	"github.com/backmassage/beatcut/internal/timeline"
)

// --- Enum types for validated string fields ---

// EncoderMode selects the video encoder.
type EncoderMode string

const (
	EncoderNVENC EncoderMode = "nvenc" // h264_nvenc, falls back to CPU on failure.
	EncoderCPU   EncoderMode = "cpu"   // libx264 (default).
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultOutput is the render target when -o is not given.
const DefaultOutput = "beat_aligned.mp4"

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid by [ApplyEnv] and [ParseArgs], then passed by pointer to the
// packages that need it. Fields are grouped by concern with inline
// documentation of defaults.
type Config struct {
	// Paths (audio and images from positional args).
	AudioPath  string // File, directory of audio files, or "auto" (use ImagesDir).
	ImagesDir  string
	OutputPath string // Default: "beat_aligned.mp4". Directory in per-audio mode.
	BeatsFile  string // Precomputed beats; skips aubio.
	PlanIn     string // Replay a saved plan; skips detection and selection.
	PlanOut    string // Write the plan document here.
	PerAudio   bool   // One render per audio file when AudioPath is a directory.

	// Cut selection.
	PeriodMin    float64 // Default: 5.0.
	PeriodMax    float64 // Default: 10.0.
	TargetPeriod float64 // Default: 7.5.
	Grace        float64 // Default: 0.5.
	MinCutGap    float64 // Default: 2.05 (>= 2*xfade + 0.05).
	Phase        float64 // Default: -0.03.
	Strict       bool
	AllBeats     bool
	AudioEnd     float64 // 0 means probe the audio file.
	MaxSeconds   float64 // 0 means no cap.
	BeatMinGap   float64 // Default: 0.12. Detected beats closer than this are merged.

	// Timeline.
	FPS                int     // Default: 25.
	Transition         string  // xfade transition name. Default: "fade".
	TransitionDuration float64 // Default: 0.6.
	MinEffective       float64 // Default: 0.25.
	Align              timeline.Align
	Quantize           timeline.Quantize
	FallbackStyle      timeline.Effect
	FallbackDuration   float64 // Default: 0.06.
	Hardcuts           bool

	// Presets.
	Preset     string // Built-in or file preset name.
	PresetFile string // YAML file with extra presets.

	// Render.
	EncoderMode     EncoderMode
	Width           int     // Default: 1920.
	Height          int     // Default: 1080.
	CRF             int     // Default: 23.
	X264Preset      string  // Default: "ultrafast".
	AudioCodec      string  // Default: "aac".
	AudioBitrate    string  // Default: "192k".
	NoAudio         bool    // Render video only.
	CutMarkers      bool    // Red tick at every on-beat instant.
	MarkerDuration  float64 // Default: 0.12.
	PulseSaturation float64 // Default: 1.25.
	PulseBrightness float64 // Default: 0.0.
	BloomSigma      float64 // Default: 8.0.
	DryRun          bool
	SkipExisting    bool // Default: true. Cleared by --force.
	StrictRender    bool // Disable ffmpeg retry fallbacks.
	Workers         int  // Planning workers in per-audio mode. Default: 4.

	// Service.
	Listen    string        // Default: ":8080".
	Store     store.Options // Backend "memory" by default.
	ServeMode bool          // Set by the "serve" subcommand.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string
	CheckOnly bool
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the environment and CLI flags apply overrides.
func DefaultConfig() Config {
	return Config{
		OutputPath:         DefaultOutput,
		PeriodMin:          5.0,
		PeriodMax:          10.0,
		TargetPeriod:       7.5,
		Grace:              0.5,
		MinCutGap:          2.05,
		Phase:              -0.03,
		BeatMinGap:         0.12,
		FPS:                25,
		Transition:         "fade",
		TransitionDuration: 0.6,
		MinEffective:       0.25,
		Align:              timeline.AlignMidpoint,
		Quantize:           timeline.QuantizeNearest,
		FallbackStyle:      timeline.EffectNone,
		FallbackDuration:   0.06,
		EncoderMode:        EncoderCPU,
		Width:              1920,
		Height:             1080,
		CRF:                23,
		X264Preset:         "ultrafast",
		AudioCodec:         "aac",
		AudioBitrate:       "192k",
		MarkerDuration:     0.12,
		PulseSaturation:    1.25,
		PulseBrightness:    0.0,
		BloomSigma:         8.0,
		SkipExisting:       true,
		Workers:            4,
		Listen:             ":8080",
		Store:              store.Options{Backend: store.BackendMemory, Dir: "plans", CacheSize: 256},
		ColorMode:          ColorAuto,
	}
}

// Params projects the planning fields into their persisted form.
func (c *Config) Params() plan.Params {
	return plan.Params{
		PeriodMin:          c.PeriodMin,
		PeriodMax:          c.PeriodMax,
		TargetPeriod:       c.TargetPeriod,
		Strict:             c.Strict,
		Grace:              c.Grace,
		MinCutGap:          c.MinCutGap,
		Phase:              c.Phase,
		AllBeats:           c.AllBeats,
		FPS:                c.FPS,
		Transition:         c.Transition,
		TransitionDuration: c.TransitionDuration,
		MinEffective:       c.MinEffective,
		Margin:             ptr(timeline.DefaultMargin),
		Align:              string(c.Align),
		Quantize:           string(c.Quantize),
		Fallback:           string(c.FallbackStyle),
		FallbackDuration:   c.FallbackDuration,
		Hardcuts:           c.Hardcuts,
	}
}

// Constraints projects the selector inputs.
func (c *Config) Constraints() selector.Constraints {
	return c.Params().Constraints()
}

// TimelineConfig projects the planner inputs.
func (c *Config) TimelineConfig() timeline.Config {
	return c.Params().Timeline()
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric ranges, then the core inputs via
// their own validators. Outside CheckOnly and ServeMode it also requires
// the positional paths.
func (c *Config) Validate() error {
	switch c.EncoderMode {
	case EncoderNVENC, EncoderCPU:
		// valid
	default:
		return errors.New("invalid encoder (use 'nvenc' or 'cpu')")
	}
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.CRF < 0 || c.CRF > 51 {
		return fmt.Errorf("crf must be between 0 and 51 (got %d)", c.CRF)
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	for name, v := range map[string]float64{
		"audio-end":   c.AudioEnd,
		"max-seconds": c.MaxSeconds,
		"beat-gap":    c.BeatMinGap,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if strings.TrimSpace(c.Transition) == "" {
		return errors.New("transition name must not be empty")
	}
	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate

	if err := c.Constraints().Validate(); err != nil {
		return err
	}
	if err := c.TimelineConfig().Validate(); err != nil {
		return err
	}

	if c.CheckOnly || c.ServeMode {
		return nil
	}
	if c.AudioPath == "" || c.ImagesDir == "" {
		return errors.New("need exactly audio and images_dir")
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "192", "192k", "192K", "192kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 192k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

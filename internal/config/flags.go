package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into selection, timeline, render, plan, service, display and utility.
// Negated flags (e.g. --force) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/backmassage/beatcut/internal/timeline"
)

// Version is shown in --version and help; override at build time with
// -ldflags "-X github.com/backmassage/beatcut/internal/config.Version=...".
var Version = "0.3.0-dev"

// ServeCommand is the subcommand that starts the HTTP planning service.
const ServeCommand = "serve"

var (
	// ErrHelp is returned by [ParseArgs] when --help was requested.
	ErrHelp = errors.New("help requested")
	// ErrVersion is returned by [ParseArgs] when --version was requested.
	ErrVersion = errors.New("version requested")
)

// ParseFlags applies BEATCUT_* variables and then os.Args to cfg. On --help
// or --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, missing positional args).
func ParseFlags(cfg *Config) error {
	err := ParseArgs(cfg, os.Args[1:], lookupOS)
	switch {
	case errors.Is(err, ErrHelp):
		printUsage(os.Stderr)
		os.Exit(0)
	case errors.Is(err, ErrVersion):
		fmt.Fprintln(os.Stdout, "beatcut v"+Version)
		os.Exit(0)
	}
	return err
}

// ParseArgs is ParseFlags without the process side effects: the environment
// comes from lookup and help/version surface as [ErrHelp] and [ErrVersion].
func ParseArgs(cfg *Config, args []string, lookup func(string) (string, bool)) error {
	explicit, err := ApplyEnv(cfg, lookup)
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == ServeCommand {
		cfg.ServeMode = true
		args = args[1:]
	}

	fs := flag.NewFlagSet("beatcut", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that defaults from DefaultConfig() hold unless the user passes the flag.
	var negated negatedFlags

	defineSelectionFlags(fs, cfg)
	defineTimelineFlags(fs, cfg)
	defineRenderFlags(fs, cfg, &negated)
	definePlanFlags(fs, cfg)
	defineServiceFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelp
		}
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := presetFlagKeys[f.Name]; ok {
			explicit[key] = true
		}
	})

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		return ErrHelp
	}
	if negated.showVersion {
		return ErrVersion
	}

	if err := parsePositionalArgs(fs, cfg); err != nil {
		return err
	}
	return resolvePreset(cfg, explicit)
}

// presetFlagKeys maps flag names onto the preset keys they pin.
var presetFlagKeys = map[string]string{
	"align":          keyAlign,
	"xfade":          keyXfade,
	"xfade-min":      keyXfadeMin,
	"phase":          keyPhase,
	"period":         keyPeriod,
	"target":         keyTarget,
	"quantize":       keyQuantize,
	"frame-quantize": keyQuantize,
	"all-beats":      keyAllBeats,
	"fallback-style": keyFallback,
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a default (force -> SkipExisting=false) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	force       bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineSelectionFlags registers the cut-selection window and beat sources.
func defineSelectionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&periodValue{cfg}, "period", "Allowed cut spacing MIN,MAX in seconds")
	fs.Float64Var(&cfg.TargetPeriod, "target", cfg.TargetPeriod, "Preferred cut spacing in seconds")
	fs.Float64Var(&cfg.Grace, "grace", cfg.Grace, "Window widening in strict mode")
	fs.Float64Var(&cfg.MinCutGap, "min-gap", cfg.MinCutGap, "Minimum gap between cuts")
	fs.Float64Var(&cfg.Phase, "phase", cfg.Phase, "Offset added to every beat")
	fs.BoolVar(&cfg.Strict, "strict", false, "Widen by grace instead of nearest-beat fallback")
	fs.BoolVar(&cfg.AllBeats, "all-beats", false, "Cut on every beat")
	fs.Float64Var(&cfg.AudioEnd, "audio-end", 0, "Audio length in seconds (default: probe)")
	fs.Float64Var(&cfg.MaxSeconds, "max-seconds", 0, "Plan only the first N seconds")
	fs.Float64Var(&cfg.BeatMinGap, "beat-gap", cfg.BeatMinGap, "Merge detected beats closer than this")
	fs.StringVar(&cfg.BeatsFile, "beats", "", "Read beats from file instead of aubio")
}

// defineTimelineFlags registers frame rate, crossfade and fallback settings.
func defineTimelineFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Output frame rate")
	fs.StringVar(&cfg.Transition, "transition", cfg.Transition, "xfade transition type")
	fs.Float64Var(&cfg.TransitionDuration, "xfade", cfg.TransitionDuration, "Crossfade duration in seconds")
	fs.Float64Var(&cfg.MinEffective, "xfade-min", cfg.MinEffective, "Shorter crossfades become hard cuts")
	fs.Var(&alignValue{&cfg.Align}, "align", "Crossfade alignment: midpoint | end")
	fs.Var(&quantizeValue{&cfg.Quantize}, "quantize", "Frame quantization: nearest | floor | ceil")
	fs.Var(&quantizeValue{&cfg.Quantize}, "frame-quantize", "Same as --quantize")
	fs.Var(&effectValue{&cfg.FallbackStyle}, "fallback-style", "Hard-cut accent: none | pulse | bloom | whitepop | blackflash")
	fs.Float64Var(&cfg.FallbackDuration, "fallback-dur", cfg.FallbackDuration, "Hard-cut accent duration")
	fs.BoolVar(&cfg.Hardcuts, "hardcuts", false, "No crossfades")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Style preset")
	fs.StringVar(&cfg.PresetFile, "preset-file", cfg.PresetFile, "YAML file with extra presets")
}

// defineRenderFlags registers output, encoder and effect settings.
func defineRenderFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output file (directory with --per-audio)")
	fs.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "Same as --output")
	fs.Var(&encoderModeValue{&cfg.EncoderMode}, "encoder", "Video encoder: cpu | nvenc")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Output width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Output height")
	fs.IntVar(&cfg.CRF, "crf", cfg.CRF, "x264 CRF")
	fs.StringVar(&cfg.X264Preset, "x264-preset", cfg.X264Preset, "x264 preset")
	fs.StringVar(&cfg.AudioBitrate, "audio-bitrate", cfg.AudioBitrate, "AAC bitrate")
	fs.BoolVar(&cfg.NoAudio, "no-audio", false, "Do not mux audio")
	fs.BoolVar(&cfg.CutMarkers, "cut-markers", false, "Draw a red tick at every cut")
	fs.Float64Var(&cfg.PulseSaturation, "pulse-sat", cfg.PulseSaturation, "Pulse accent saturation")
	fs.Float64Var(&cfg.PulseBrightness, "pulse-bright", cfg.PulseBrightness, "Pulse accent brightness")
	fs.Float64Var(&cfg.BloomSigma, "bloom-sigma", cfg.BloomSigma, "Bloom accent blur sigma")
	fs.BoolVar(&cfg.PerAudio, "per-audio", false, "One render per audio file")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel planning workers")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Plan only; do not render")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.StrictRender, "strict-render", false, "Disable ffmpeg retry fallbacks")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing output files")
	fs.BoolVar(&n.force, "f", false, "Same as --force")
}

// definePlanFlags registers --plan-in and --plan-out.
func definePlanFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.PlanIn, "plan-in", "", "Replay a saved plan")
	fs.StringVar(&cfg.PlanOut, "plan-out", "", "Write the plan document")
}

// defineServiceFlags registers the serve subcommand settings.
func defineServiceFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address")
	fs.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "Plan store: memory | file | s3")
	fs.StringVar(&cfg.Store.Dir, "store-dir", cfg.Store.Dir, "Directory for the file store")
	fs.IntVar(&cfg.Store.CacheSize, "cache-size", cfg.Store.CacheSize, "Plan cache entries (0 disables)")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets AudioPath and ImagesDir from the two positional
// args. "auto" as audio means the images directory holds the audio too.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly || cfg.ServeMode {
		if len(args) != 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("need exactly audio and images_dir")
	}
	cfg.ImagesDir = NormalizeDirArg(args[1])
	cfg.AudioPath = args[0]
	if strings.EqualFold(cfg.AudioPath, "auto") {
		cfg.AudioPath = cfg.ImagesDir
	} else {
		cfg.AudioPath = NormalizeDirArg(cfg.AudioPath)
	}
	return nil
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "beatcut v" + Version + " - beat-constrained slideshow cut planner"},
		{"", ""},
		{"  beatcut [OPTIONS] <audio|auto> <images_dir>", ""},
		{"  beatcut serve [OPTIONS]", ""},
		{"", ""},
		{"Selection", ""},
		{"  --period <min,max>", "Allowed cut spacing (default: 5,10)"},
		{"  --target <sec>", "Preferred cut spacing (default: 7.5)"},
		{"  --grace <sec>", "Strict-mode window widening (default: 0.5)"},
		{"  --min-gap <sec>", "Minimum gap between cuts (default: 2.05)"},
		{"  --phase <sec>", "Offset added to every beat (default: -0.03)"},
		{"  --strict", "Widen by grace instead of nearest-beat fallback"},
		{"  --all-beats", "Cut on every beat"},
		{"  --audio-end <sec>", "Audio length (default: ffprobe)"},
		{"  --max-seconds <sec>", "Plan only the first N seconds"},
		{"  --beats <file>", "Read beats from file instead of aubio"},
		{"  --beat-gap <sec>", "Merge beats closer than this (default: 0.12)"},
		{"", ""},
		{"Timeline", ""},
		{"  --fps <n>", "Output frame rate (default: 25)"},
		{"  --transition <name>", "xfade transition (default: fade)"},
		{"  --xfade <sec>", "Crossfade duration (default: 0.6)"},
		{"  --xfade-min <sec>", "Shorter crossfades become hard cuts (default: 0.25)"},
		{"  --align <midpoint|end>", "Crossfade alignment (default: midpoint)"},
		{"  --quantize <mode>", "nearest | floor | ceil (default: nearest)"},
		{"  --fallback-style <style>", "none | pulse | bloom | whitepop | blackflash"},
		{"  --fallback-dur <sec>", "Hard-cut accent duration (default: 0.06)"},
		{"  --hardcuts", "No crossfades"},
		{"  --preset <name>", strings.Join(PresetNames(), " | ")},
		{"  --preset-file <path>", "YAML file with extra presets"},
		{"", ""},
		{"Render", ""},
		{"  -o, --output <path>", "Output file (default: " + DefaultOutput + ")"},
		{"  --encoder <cpu|nvenc>", "Video encoder (default: cpu)"},
		{"  --width, --height <px>", "Frame size (default: 1920x1080)"},
		{"  --crf <n>", "x264 CRF (default: 23)"},
		{"  --x264-preset <name>", "x264 preset (default: ultrafast)"},
		{"  --audio-bitrate <rate>", "AAC bitrate (default: 192k)"},
		{"  --no-audio", "Do not mux audio"},
		{"  --cut-markers", "Draw a red tick at every cut"},
		{"  --pulse-sat, --pulse-bright", "Pulse accent (default: 1.25, 0.0)"},
		{"  --bloom-sigma <n>", "Bloom accent blur (default: 8)"},
		{"  --per-audio", "One render per audio file"},
		{"  --workers <n>", "Parallel planning workers (default: 4)"},
		{"  -f, --force", "Overwrite existing output files"},
		{"  -d, --dry-run", "Plan only; do not render"},
		{"  --strict-render", "Disable ffmpeg retry fallbacks"},
		{"", ""},
		{"Plan files", ""},
		{"  --plan-out <path>", "Write the plan document"},
		{"  --plan-in <path>", "Replay a saved plan"},
		{"", ""},
		{"Service (serve)", ""},
		{"  --listen <addr>", "HTTP listen address (default: :8080)"},
		{"  --store <backend>", "memory | file | s3 (default: memory)"},
		{"  --store-dir <dir>", "File store directory (default: plans)"},
		{"  --cache-size <n>", "Plan cache entries (default: 256)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, aubio)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types with flag.Var.

type encoderModeValue struct{ p *EncoderMode }

func (e *encoderModeValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}
func (e *encoderModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "nvenc":
		*e.p = EncoderNVENC
	case "cpu":
		*e.p = EncoderCPU
	default:
		return fmt.Errorf("invalid encoder %q (use 'cpu' or 'nvenc')", s)
	}
	return nil
}

type alignValue struct{ p *timeline.Align }

func (a *alignValue) String() string {
	if a.p == nil {
		return ""
	}
	return string(*a.p)
}
func (a *alignValue) Set(s string) error {
	switch v := timeline.Align(strings.ToLower(s)); v {
	case timeline.AlignMidpoint, timeline.AlignEnd:
		*a.p = v
	default:
		return fmt.Errorf("invalid align %q (use 'midpoint' or 'end')", s)
	}
	return nil
}

type quantizeValue struct{ p *timeline.Quantize }

func (q *quantizeValue) String() string {
	if q.p == nil {
		return ""
	}
	return string(*q.p)
}
func (q *quantizeValue) Set(s string) error {
	switch v := timeline.Quantize(strings.ToLower(s)); v {
	case timeline.QuantizeNearest, timeline.QuantizeFloor, timeline.QuantizeCeil:
		*q.p = v
	default:
		return fmt.Errorf("invalid quantize %q (use 'nearest', 'floor' or 'ceil')", s)
	}
	return nil
}

type effectValue struct{ p *timeline.Effect }

func (e *effectValue) String() string {
	if e.p == nil {
		return ""
	}
	return string(*e.p)
}
func (e *effectValue) Set(s string) error {
	v, err := timeline.ParseEffect(strings.ToLower(s))
	if err != nil {
		return fmt.Errorf("invalid fallback style %q", s)
	}
	*e.p = v
	return nil
}

// periodValue parses "MIN,MAX" into PeriodMin and PeriodMax.
type periodValue struct{ cfg *Config }

func (p *periodValue) String() string {
	if p.cfg == nil {
		return ""
	}
	return strconv.FormatFloat(p.cfg.PeriodMin, 'g', -1, 64) + "," + strconv.FormatFloat(p.cfg.PeriodMax, 'g', -1, 64)
}
func (p *periodValue) Set(s string) error {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return fmt.Errorf("period needs MIN,MAX (got %q)", s)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("period values must be numbers (got %q)", s)
	}
	p.cfg.PeriodMin, p.cfg.PeriodMax = lo, hi
	return nil
}

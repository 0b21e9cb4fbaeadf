package config

// Environment overlay: an optional .env file (godotenv) feeds BEATCUT_*
// variables, which sit between defaults and CLI flags in precedence.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable read by [ApplyEnv].
const EnvPrefix = "BEATCUT_"

// LoadEnv loads KEY=VALUE pairs from the given .env files (default ".env")
// into the process environment. Existing variables win. Missing files are
// not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

type envBinding struct {
	name   string // Suffix after EnvPrefix.
	preset string // Preset key this variable pins, if any.
	apply  func(cfg *Config, v string) error
}

var envBindings = []envBinding{
	{"PERIOD", keyPeriod, func(c *Config, v string) error { return (&periodValue{c}).Set(v) }},
	{"TARGET", keyTarget, floatSetter(func(c *Config) *float64 { return &c.TargetPeriod })},
	{"GRACE", "", floatSetter(func(c *Config) *float64 { return &c.Grace })},
	{"MIN_GAP", "", floatSetter(func(c *Config) *float64 { return &c.MinCutGap })},
	{"PHASE", keyPhase, floatSetter(func(c *Config) *float64 { return &c.Phase })},
	{"XFADE", keyXfade, floatSetter(func(c *Config) *float64 { return &c.TransitionDuration })},
	{"XFADE_MIN", keyXfadeMin, floatSetter(func(c *Config) *float64 { return &c.MinEffective })},
	{"ALIGN", keyAlign, func(c *Config, v string) error { return (&alignValue{&c.Align}).Set(v) }},
	{"QUANTIZE", keyQuantize, func(c *Config, v string) error { return (&quantizeValue{&c.Quantize}).Set(v) }},
	{"FALLBACK_STYLE", keyFallback, func(c *Config, v string) error { return (&effectValue{&c.FallbackStyle}).Set(v) }},
	{"FPS", "", intSetter(func(c *Config) *int { return &c.FPS })},
	{"PRESET", "", func(c *Config, v string) error { c.Preset = v; return nil }},
	{"PRESET_FILE", "", func(c *Config, v string) error { c.PresetFile = v; return nil }},
	{"ENCODER", "", func(c *Config, v string) error { return (&encoderModeValue{&c.EncoderMode}).Set(v) }},
	{"WORKERS", "", intSetter(func(c *Config) *int { return &c.Workers })},
	{"LOG", "", func(c *Config, v string) error { c.LogFile = v; return nil }},
	{"LISTEN", "", func(c *Config, v string) error { c.Listen = v; return nil }},
	{"STORE", "", func(c *Config, v string) error { c.Store.Backend = v; return nil }},
	{"STORE_DIR", "", func(c *Config, v string) error { c.Store.Dir = v; return nil }},
	{"CACHE_SIZE", "", intSetter(func(c *Config) *int { return &c.Store.CacheSize })},
	{"S3_ENDPOINT", "", func(c *Config, v string) error { c.Store.S3.Endpoint = v; return nil }},
	{"S3_REGION", "", func(c *Config, v string) error { c.Store.S3.Region = v; return nil }},
	{"S3_ACCESS_KEY", "", func(c *Config, v string) error { c.Store.S3.AccessKey = v; return nil }},
	{"S3_SECRET_KEY", "", func(c *Config, v string) error { c.Store.S3.SecretKey = v; return nil }},
	{"S3_BUCKET", "", func(c *Config, v string) error { c.Store.S3.Bucket = v; return nil }},
	{"S3_PREFIX", "", func(c *Config, v string) error { c.Store.S3.Prefix = v; return nil }},
	{"S3_USE_SSL", "", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("must be true or false (got %q)", v)
		}
		c.Store.S3.UseSSL = b
		return nil
	}},
}

// ApplyEnv overlays BEATCUT_* variables from lookup onto cfg and returns the
// preset keys they pinned. Pass os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) (map[string]bool, error) {
	explicit := make(map[string]bool)
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return nil, fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
		if b.preset != "" {
			explicit[b.preset] = true
		}
	}
	return explicit, nil
}

func floatSetter(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("must be a number (got %q)", v)
		}
		*field(c) = f
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be a whole number (got %q)", v)
		}
		*field(c) = n
		return nil
	}
}

// lookupOS is the production lookup.
var lookupOS = os.LookupEnv

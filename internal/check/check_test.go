package check

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/backmassage/beatcut/internal/config"
)

// fakeSystem stubs PATH lookups and ffmpeg runs for one test.
type fakeSystem struct {
	missing  map[string]bool
	filters  string
	failRuns map[string]bool // keyed by codec name
}

func (f *fakeSystem) install(t *testing.T) {
	t.Helper()
	origLook, origOut, origRun := lookPath, output, run
	t.Cleanup(func() { lookPath, output, run = origLook, origOut, origRun })

	lookPath = func(name string) (string, error) {
		if f.missing[name] {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	output = func(name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[len(args)-1] == "-filters" {
			return []byte(f.filters), nil
		}
		return []byte(name + " version 6.1\nbuilt with gcc"), nil
	}
	run = func(_ string, args ...string) bool {
		for _, a := range args {
			if f.failRuns[a] {
				return false
			}
		}
		return true
	}
}

const filterList = ` ... xfade             VV->V      Cross fade one video with another video.
 T.C gblur             V->V       Apply Gaussian Blur filter.`

// recLogger records every line by level.
type recLogger struct{ lines []string }

func (r *recLogger) add(level, format string, args ...any) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}
func (r *recLogger) Info(f string, a ...any)    { r.add("INFO", f, a...) }
func (r *recLogger) Success(f string, a ...any) { r.add("SUCCESS", f, a...) }
func (r *recLogger) Warn(f string, a ...any)    { r.add("WARN", f, a...) }
func (r *recLogger) Error(f string, a ...any)   { r.add("ERROR", f, a...) }
func (r *recLogger) Debug(f string, a ...any)   { r.add("DEBUG", f, a...) }

func (r *recLogger) has(substr string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestCheckDeps(t *testing.T) {
	tests := []struct {
		name string
		sys  fakeSystem
		mut  func(*config.Config)
		want error
	}{
		{"all present", fakeSystem{filters: filterList}, nil, nil},
		{"no ffmpeg", fakeSystem{missing: map[string]bool{"ffmpeg": true}}, nil, ErrFfmpegNotFound},
		{"no ffprobe", fakeSystem{missing: map[string]bool{"ffprobe": true}}, nil, ErrFfprobeNotFound},
		{"no aubio", fakeSystem{missing: map[string]bool{"aubio": true}}, nil, ErrAubioNotFound},
		{"no aubio with beats file", fakeSystem{missing: map[string]bool{"aubio": true}, filters: filterList},
			func(c *config.Config) { c.BeatsFile = "beats.txt" }, nil},
		{"no aubio with plan", fakeSystem{missing: map[string]bool{"aubio": true}, filters: filterList},
			func(c *config.Config) { c.PlanIn = "plan.json" }, nil},
		{"no xfade", fakeSystem{filters: " T.C gblur V->V"}, nil, ErrNoXfade},
		{"no xfade dry run", fakeSystem{}, func(c *config.Config) { c.DryRun = true }, nil},
		{"x264 broken", fakeSystem{filters: filterList, failRuns: map[string]bool{"libx264": true}}, nil, ErrCPUEncodeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sys.install(t)
			cfg := config.DefaultConfig()
			if tt.mut != nil {
				tt.mut(&cfg)
			}
			if err := CheckDeps(&cfg); !errors.Is(err, tt.want) {
				t.Errorf("CheckDeps() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunCheck_ReportsNVENCFallback(t *testing.T) {
	sys := fakeSystem{filters: filterList, failRuns: map[string]bool{"h264_nvenc": true}}
	sys.install(t)

	cfg := config.DefaultConfig()
	cfg.EncoderMode = config.EncoderNVENC
	log := &recLogger{}
	RunCheck(&cfg, log)

	if !log.has("SUCCESS ffmpeg: ffmpeg version 6.1") {
		t.Errorf("missing ffmpeg version line: %v", log.lines)
	}
	if !log.has("SUCCESS xfade filter available") {
		t.Errorf("missing xfade line: %v", log.lines)
	}
	if !log.has("WARN h264_nvenc test encode failed") {
		t.Errorf("missing nvenc failure: %v", log.lines)
	}
	if !log.has("fall back to libx264") {
		t.Errorf("missing fallback warning: %v", log.lines)
	}
}

func TestRunCheck_MissingTools(t *testing.T) {
	sys := fakeSystem{missing: map[string]bool{"aubio": true}}
	sys.install(t)

	cfg := config.DefaultConfig()
	log := &recLogger{}
	RunCheck(&cfg, log)

	if !log.has("ERROR aubio not found") {
		t.Errorf("missing aubio error: %v", log.lines)
	}
	if !log.has("ERROR xfade filter missing") {
		t.Errorf("missing xfade error: %v", log.lines)
	}
}

// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for ffmpeg, ffprobe, aubio, the xfade
// filter, libx264, NVENC and AAC.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/beatcut/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrAubioNotFound   = errors.New("aubio not found on PATH (install aubio-tools or pass --beats)")
	ErrNoXfade         = errors.New("ffmpeg lacks the xfade filter (need ffmpeg 4.3 or newer)")
	ErrCPUEncodeFailed = errors.New("libx264 test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Hooks for tests.
var (
	lookPath = exec.LookPath
	output   = func(name string, args ...string) ([]byte, error) {
		return exec.Command(name, args...).Output()
	}
	run = runSilent
)

// RunCheck runs the interactive --check flow: prints availability of
// ffmpeg, ffprobe and aubio, then test-encodes with every encoder beatcut
// can use. Informational only; it does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkTool(log, "ffmpeg", "-version")
	checkTool(log, "ffprobe", "-version")
	checkTool(log, "aubio", "--version")
	checkXfade(log)
	checkEncoder(log, "libx264", x264TestArgs())
	checkEncoder(log, "h264_nvenc", nvencTestArgs())
	checkEncoder(log, "aac", aacTestArgs())

	if cfg.EncoderMode == config.EncoderNVENC && !run("ffmpeg", nvencTestArgs()...) {
		log.Warn("Encoder is nvenc but NVENC is unusable; renders will fall back to libx264")
	}
}

// checkTool verifies name is on PATH and logs the first line of its version output.
func checkTool(log Logger, name, versionFlag string) {
	if _, err := lookPath(name); err != nil {
		log.Error("%s not found", name)
		return
	}
	out, err := output(name, versionFlag)
	if err != nil {
		log.Warn("%s found but %s failed: %v", name, versionFlag, err)
		return
	}
	log.Success("%s: %s", name, firstLine(string(out)))
}

// checkXfade lists the blend filter used for crossfades.
func checkXfade(log Logger) {
	if hasXfade() {
		log.Success("xfade filter available")
	} else {
		log.Error("xfade filter missing; crossfades will fail")
	}
}

func checkEncoder(log Logger, name string, args []string) {
	log.Info("Testing %s...", name)
	if run("ffmpeg", args...) {
		log.Success("%s works", name)
	} else {
		log.Warn("%s test encode failed", name)
	}
}

// CheckDeps is the pre-pipeline validation: ffmpeg and ffprobe must be on
// PATH, aubio too unless beats come from a file or a saved plan. Rendering
// runs also need xfade and a working libx264, the fallback for every
// encoder mode. Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := lookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := lookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	if cfg.BeatsFile == "" && cfg.PlanIn == "" {
		if _, err := lookPath("aubio"); err != nil {
			return ErrAubioNotFound
		}
	}
	if cfg.DryRun {
		return nil
	}
	if !hasXfade() {
		return ErrNoXfade
	}
	if !run("ffmpeg", x264TestArgs()...) {
		return ErrCPUEncodeFailed
	}
	return nil
}

// --- internal helpers ---

func hasXfade() bool {
	out, err := output("ffmpeg", "-hide_banner", "-filters")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "xfade" {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return s
}

// encodeTestArgs returns the ffmpeg arguments for a minimal test encode of
// a black still with the given codec args.
func encodeTestArgs(codec ...string) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
	}
	args = append(args, codec...)
	return append(args, "-f", "null", "-")
}

func x264TestArgs() []string {
	return encodeTestArgs("-c:v", "libx264", "-pix_fmt", "yuv420p")
}

func nvencTestArgs() []string {
	return encodeTestArgs("-c:v", "h264_nvenc", "-pix_fmt", "yuv420p")
}

func aacTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// Package beats reads, detects and cleans beat timestamps.
//
// Beats come from a file (one number per line, or JSON) or from the aubio
// CLI. Every source goes through [Dedupe], which sorts, drops negatives and
// merges beats closer than a minimum gap.
package beats

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// DefaultMinGap merges detector double-triggers.
const DefaultMinGap = 0.12

// ErrNoBeats is returned when a source yields no usable timestamps.
var ErrNoBeats = errors.New("no beats")

// Dedupe sorts beats ascending, drops negative and non-finite values, and
// keeps a beat only if it is at least minGap after the previously kept one.
func Dedupe(beats []float64, minGap float64) []float64 {
	sorted := make([]float64, 0, len(beats))
	for _, b := range beats {
		if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.Float64s(sorted)

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && b-out[n-1] < minGap {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ParseText reads one timestamp per line. Blank lines and lines starting
// with '#' are skipped; so is any line whose first field is not a number,
// which tolerates aubio's occasional diagnostics on stdout.
func ParseText(r io.Reader) ([]float64, error) {
	var out []float64
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read beats: %w", err)
	}
	return out, nil
}

// ParseJSON accepts either a bare array of seconds or {"beats": [...]}.
func ParseJSON(data []byte) ([]float64, error) {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr, nil
	}
	var obj struct {
		Beats []float64 `json:"beats"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse beats JSON: %w", err)
	}
	return obj.Beats, nil
}

// Parse sniffs the format: JSON when the first non-space byte is '[' or
// '{', text otherwise.
func Parse(data []byte) ([]float64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return ParseJSON(trimmed)
	}
	return ParseText(bytes.NewReader(data))
}

// LoadFile reads beats from path and cleans them with minGap.
func LoadFile(path string, minGap float64) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read beats file: %w", err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := Dedupe(raw, minGap)
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoBeats)
	}
	return out, nil
}

// Detect runs "aubio beat -i <audio>" and returns the cleaned beats.
func Detect(ctx context.Context, audio string, minGap float64) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "aubio", "beat", "-i", audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("aubio beat %q: %w: %s", audio, err, msg)
		}
		return nil, fmt.Errorf("aubio beat %q: %w", audio, err)
	}
	raw, err := ParseText(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	beats := Dedupe(raw, minGap)
	if len(beats) == 0 {
		return nil, fmt.Errorf("aubio beat %q: %w", audio, ErrNoBeats)
	}
	return beats, nil
}

// WriteText writes one timestamp per line with microsecond precision.
func WriteText(w io.Writer, beats []float64) error {
	bw := bufio.NewWriter(w)
	for _, b := range beats {
		if _, err := fmt.Fprintf(bw, "%.6f\n", b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

package display

import (
	"fmt"
	"math"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatSeconds renders a timeline position as m:ss.mmm, or s.mmms below
// one minute.
func FormatSeconds(sec float64) string {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "-"
	}
	sign := ""
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	ms := int64(math.Round(sec * 1000))
	if ms < 60_000 {
		return fmt.Sprintf("%s%d.%03ds", sign, ms/1000, ms%1000)
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, ms/60_000, (ms/1000)%60, ms%1000)
}

// FormatFrames renders a frame count with its duration, e.g. "15f (0.600s)".
func FormatFrames(frames, fps int) string {
	if fps <= 0 {
		return fmt.Sprintf("%df", frames)
	}
	return fmt.Sprintf("%df (%s)", frames, FormatSeconds(float64(frames)/float64(fps)))
}

package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Binary is the ffprobe executable, resolved through PATH.
var Binary = "ffprobe"

// ErrNoDuration is returned by [AudioDuration] when ffprobe reports none.
var ErrNoDuration = errors.New("no duration reported")

// probeArgs asks for the container and stream sections only.
var probeArgs = []string{
	"-v", "error",
	"-print_format", "json",
	"-show_format", "-show_streams",
}

// Probe runs ffprobe on path and parses its report. The first stderr line
// is attached to a failure.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, Binary, append(append([]string{}, probeArgs...), path)...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if line, _, _ := strings.Cut(strings.TrimSpace(stderr.String()), "\n"); line != "" {
			return nil, fmt.Errorf("ffprobe %q: %w: %s", path, err, line)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

// AudioDuration probes path and returns its duration in seconds.
func AudioDuration(ctx context.Context, path string) (float64, error) {
	pr, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if !pr.HasAudio() {
		return 0, fmt.Errorf("%s: no audio stream", path)
	}
	d := pr.Duration()
	if d <= 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoDuration)
	}
	return d, nil
}

// ParseJSON decodes an ffprobe report. Tests feed it canned output.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode ffprobe report: %w", err)
	}
	return rep.result(), nil
}

// numeric is a number ffprobe prints as a JSON string. Unparseable values
// read as zero.
type numeric string

func (n numeric) float() float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	return f
}

func (n numeric) int64() int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
	return v
}

type report struct {
	Format struct {
		Filename   string            `json:"filename"`
		FormatName string            `json:"format_name"`
		Duration   numeric           `json:"duration"`
		Size       numeric           `json:"size"`
		BitRate    numeric           `json:"bit_rate"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []reportStream `json:"streams"`
}

type reportStream struct {
	Index         int     `json:"index"`
	CodecName     string  `json:"codec_name"`
	CodecType     string  `json:"codec_type"`
	PixFmt        string  `json:"pix_fmt"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	BitRate       numeric `json:"bit_rate"`
	Duration      numeric `json:"duration"`
	Channels      int     `json:"channels"`
	ChannelLayout string  `json:"channel_layout"`
	SampleRate    numeric `json:"sample_rate"`
}

// result keeps the first audio and the first picture stream.
func (r *report) result() *ProbeResult {
	f := r.Format
	pr := &ProbeResult{Format: FormatInfo{
		Filename:   f.Filename,
		FormatName: f.FormatName,
		Duration:   f.Duration.float(),
		Size:       f.Size.int64(),
		BitRate:    f.BitRate.int64(),
		Tags:       f.Tags,
	}}

	for _, s := range r.Streams {
		if s.CodecType == "audio" && pr.Audio == nil {
			pr.Audio = &AudioStream{
				Index:         s.Index,
				Codec:         s.CodecName,
				Channels:      s.Channels,
				ChannelLayout: s.ChannelLayout,
				SampleRate:    int(s.SampleRate.int64()),
				BitRate:       s.BitRate.int64(),
				Duration:      s.Duration.float(),
			}
		}
		if s.CodecType == "video" && pr.Video == nil {
			pr.Video = &VideoStream{
				Index:  s.Index,
				Codec:  s.CodecName,
				PixFmt: s.PixFmt,
				Width:  s.Width,
				Height: s.Height,
			}
		}
	}
	return pr
}

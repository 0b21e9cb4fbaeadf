package render

import (
	"errors"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/backmassage/beatcut/internal/config"
	"github.com/backmassage/beatcut/internal/timeline"
)

// ErrNothingToRender is returned for an empty plan.
var ErrNothingToRender = errors.New("render plan has no segments")

// Job is one render: a plan, the still shown in each segment, the audio
// track to mux and the output path.
type Job struct {
	Plan       *timeline.RenderPlan
	Images     []string // One per segment, already cycled.
	Audio      string   // Empty renders video only.
	Output     string
	Transition string // xfade transition name.
}

// Validate checks that the job can be turned into a command.
func (j *Job) Validate() error {
	if j.Plan.Empty() {
		return ErrNothingToRender
	}
	if len(j.Images) != len(j.Plan.Segments) {
		return fmt.Errorf("have %d images for %d segments", len(j.Images), len(j.Plan.Segments))
	}
	if j.Output == "" {
		return errors.New("output path is empty")
	}
	return nil
}

// Build constructs the ffmpeg argument slice (without the binary name) for
// a job. The retry state selects the encoder and whether effects and
// crossfades survive; it may differ from cfg after retry adjustments. With
// crossfades dropped the plan is laid out again as hard cuts, so the output
// length and overlay times follow the longer timeline.
func Build(cfg *config.Config, job *Job, rs *RetryState) ([]string, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	rp := job.Plan
	if !rs.Crossfades {
		rp = rp.AsHardcuts()
	}

	video := joinSegments(cfg, rp, job, rs)
	if rs.Effects {
		video = applyAccents(video, cfg, rp)
		if cfg.CutMarkers {
			video = applyMarkers(video, cfg, rp)
		}
	}

	streams := []*ffmpeg.Stream{video}
	if job.Audio != "" && !cfg.NoAudio {
		streams = append(streams, ffmpeg.Input(job.Audio).Audio())
	}

	out := ffmpeg.Output(streams, job.Output, outputArgs(cfg, rp, job, rs)).
		OverWriteOutput().
		GlobalArgs(globalArgs(cfg)...)
	return out.GetArgs(), nil
}

// joinSegments loads every still and chains them with xfade or concat per
// boundary.
func joinSegments(cfg *config.Config, rp *timeline.RenderPlan, job *Job, rs *RetryState) *ffmpeg.Stream {
	acc := segmentClip(cfg, job.Images[0], clipLength(rp, 0, rs), rp.FPS)
	for i, b := range rp.Boundaries {
		next := segmentClip(cfg, job.Images[i+1], clipLength(rp, i+1, rs), rp.FPS)
		if b.Kind == timeline.KindCrossfade && rs.Crossfades {
			acc = ffmpeg.Filter([]*ffmpeg.Stream{acc, next}, "xfade", ffmpeg.Args{}, ffmpeg.KwArgs{
				"transition": job.Transition,
				"duration":   seconds(b.Duration),
				"offset":     seconds(b.Offset),
			})
			continue
		}
		acc = ffmpeg.Filter([]*ffmpeg.Stream{acc, next}, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
			"n": 2, "v": 1, "a": 0,
		})
	}
	return acc
}

// clipLength is how long segment i's still is held. A segment that fades
// out is held for the blend as well so xfade never reads past its end.
func clipLength(rp *timeline.RenderPlan, i int, rs *RetryState) float64 {
	seg := rp.Segments[i]
	d := seg.Duration
	if rs.Crossfades && seg.Out >= 0 {
		if b := rp.Boundaries[seg.Out]; b.Kind == timeline.KindCrossfade {
			d += b.Duration
		}
	}
	return d
}

// segmentClip loops one still for d seconds, letterboxed to the output size.
func segmentClip(cfg *config.Config, image string, d float64, fps int) *ffmpeg.Stream {
	w, h := strconv.Itoa(cfg.Width), strconv.Itoa(cfg.Height)
	return ffmpeg.Input(image, ffmpeg.KwArgs{
		"loop":      1,
		"framerate": fps,
		"t":         seconds(d),
	}).
		Filter("scale", ffmpeg.Args{w, h}, ffmpeg.KwArgs{"force_original_aspect_ratio": "decrease"}).
		Filter("pad", ffmpeg.Args{w, h, "(ow-iw)/2", "(oh-ih)/2"}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(fps)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

// outputArgs holds codec and length options for the output file. The
// output is cut at the planned total so frame accounting stays exact.
func outputArgs(cfg *config.Config, rp *timeline.RenderPlan, job *Job, rs *RetryState) ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{
		"r":        rp.FPS,
		"pix_fmt":  "yuv420p",
		"t":        seconds(rp.TotalDuration),
		"movflags": "+faststart",
	}
	if rs.UseNVENC {
		kw["c:v"] = "h264_nvenc"
		kw["preset"] = "p5"
		kw["cq"] = cfg.CRF
	} else {
		kw["c:v"] = "libx264"
		kw["preset"] = cfg.X264Preset
		kw["crf"] = cfg.CRF
	}
	if job.Audio != "" && !cfg.NoAudio {
		kw["c:a"] = cfg.AudioCodec
		kw["b:a"] = cfg.AudioBitrate
		kw["shortest"] = ""
	}
	return kw
}

// globalArgs is the shared preamble: quiet banner, no stdin, loglevel and
// stats by verbosity.
func globalArgs(cfg *config.Config) []string {
	args := []string{"-hide_banner", "-nostdin"}
	if cfg.Verbose {
		args = append(args, "-loglevel", "info", "-stats")
	} else {
		args = append(args, "-loglevel", "error")
	}
	return args
}

// MergeArgs builds the command that concatenates audio files into one WAV
// track, used when the audio argument is a directory and renders are not
// per file.
func MergeArgs(files []string, output string) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.New("no audio files to merge")
	}
	inputs := make([]*ffmpeg.Stream, len(files))
	for i, f := range files {
		inputs[i] = ffmpeg.Input(f).Audio()
	}
	merged := ffmpeg.Filter(inputs, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": len(files), "v": 0, "a": 1,
	})
	out := ffmpeg.Output([]*ffmpeg.Stream{merged}, output, ffmpeg.KwArgs{"c:a": "pcm_s16le"}).
		OverWriteOutput().
		GlobalArgs("-hide_banner", "-nostdin", "-loglevel", "error")
	return out.GetArgs(), nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

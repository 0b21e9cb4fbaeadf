package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/beatcut/internal/beats"
	"github.com/backmassage/beatcut/internal/config"
	"github.com/backmassage/beatcut/internal/logging"
	"github.com/backmassage/beatcut/internal/plan"
	"github.com/backmassage/beatcut/internal/probe"
	"github.com/backmassage/beatcut/internal/render"
)

// mergedAudioName is the concatenated track written next to the output
// when the audio argument is a directory.
const mergedAudioName = "audio_merged.wav"

var (
	// ErrNoImages is returned when the images directory holds no stills.
	ErrNoImages = errors.New("no images (png, jpg, jpeg) found")
	// ErrNoAudio is returned when an audio directory holds no audio files.
	ErrNoAudio = errors.New("no audio files found")
)

// track is one planned render: an audio file and everything derived from it.
type track struct {
	Audio   string
	Output  string
	PlanOut string
	Images  []string // Pool of stills; cycled over segments at render time.
	Doc     *plan.Document
	Err     error
}

// prepareTracks resolves the audio argument into tracks. A directory is
// either merged into one track or, with PerAudio, split into one track per
// file. A replayed plan always yields a single pre-planned track.
func prepareTracks(ctx context.Context, cfg *config.Config, log *logging.Logger) ([]*track, error) {
	images, err := DiscoverImages(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("discover images: %w", err)
	}

	if cfg.PlanIn != "" {
		t, err := replayTrack(cfg, images)
		if err != nil {
			return nil, err
		}
		return []*track{t}, nil
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, cfg.ImagesDir)
	}

	fi, err := os.Stat(cfg.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("audio not found: %s", cfg.AudioPath)
	}
	if !fi.IsDir() {
		return []*track{{Audio: cfg.AudioPath, Output: cfg.OutputPath, PlanOut: cfg.PlanOut, Images: images}}, nil
	}

	files, err := DiscoverAudio(cfg.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("discover audio: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAudio, cfg.AudioPath)
	}

	if cfg.PerAudio {
		resolver := NewCollisionResolver()
		tracks := make([]*track, len(files))
		for i, f := range files {
			tracks[i] = &track{
				Audio:   f,
				Output:  resolver.Resolve(f, PerAudioOutput(cfg.OutputPath, f)),
				PlanOut: PlanOutputPath(cfg.PlanOut, f, true),
				Images:  images,
			}
		}
		return tracks, nil
	}

	merged := filepath.Join(filepath.Dir(cfg.OutputPath), mergedAudioName)
	log.Info("Merging %d audio files -> %s", len(files), merged)
	if err := mergeAudio(ctx, cfg, files, merged); err != nil {
		return nil, err
	}
	return []*track{{Audio: merged, Output: cfg.OutputPath, PlanOut: cfg.PlanOut, Images: images}}, nil
}

// replayTrack loads cfg.PlanIn and rebuilds its timeline from the stored
// durations. Stills and audio recorded in the plan win unless missing.
func replayTrack(cfg *config.Config, discovered []string) (*track, error) {
	doc, err := plan.Load(cfg.PlanIn)
	if err != nil {
		return nil, err
	}
	rp, err := doc.Replay()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", cfg.PlanIn, err)
	}
	doc.Plan = rp

	images := doc.Images
	if len(images) == 0 || !allExist(images) {
		images = discovered
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, cfg.ImagesDir)
	}

	audio := doc.Audio
	if fi, err := os.Stat(cfg.AudioPath); err == nil && !fi.IsDir() {
		audio = cfg.AudioPath
	}
	return &track{Audio: audio, Output: cfg.OutputPath, PlanOut: cfg.PlanOut, Images: images, Doc: doc}, nil
}

// mergeAudio concatenates files into output with ffmpeg.
func mergeAudio(ctx context.Context, cfg *config.Config, files []string, output string) error {
	args, err := render.MergeArgs(files, output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if res := render.Execute(ctx, args, cfg.Verbose); res.Err != nil {
		return fmt.Errorf("merge audio: %w", res.Err)
	}
	return nil
}

// planTracks plans every track not yet planned on at most cfg.Workers
// goroutines. Failures are recorded on the track, never returned, so one
// bad file does not stop the batch.
func planTracks(ctx context.Context, cfg *config.Config, log *logging.Logger, tracks []*track) {
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for _, t := range tracks {
		if t.Doc != nil {
			continue
		}
		g.Go(func() error {
			t.Doc, t.Err = planTrack(ctx, cfg, log, t)
			return nil
		})
	}
	_ = g.Wait()
}

// planTrack runs beat loading, audio-end resolution, cut selection and
// timeline planning for one track.
func planTrack(ctx context.Context, cfg *config.Config, log *logging.Logger, t *track) (*plan.Document, error) {
	bs, err := loadBeats(ctx, cfg, t.Audio)
	if err != nil {
		return nil, err
	}
	end := resolveAudioEnd(ctx, cfg, log, t.Audio, bs)
	log.Debug("%s: %d beats, audio end %.3fs", filepath.Base(t.Audio), len(bs), end)

	return plan.Build(plan.Request{
		Audio:     t.Audio,
		ImagesDir: cfg.ImagesDir,
		Images:    t.Images,
		Beats:     bs,
		AudioEnd:  end,
		Params:    cfg.Params(),
	})
}

// loadBeats reads cfg.BeatsFile when set, otherwise detects beats with aubio.
func loadBeats(ctx context.Context, cfg *config.Config, audio string) ([]float64, error) {
	if cfg.BeatsFile != "" {
		return beats.LoadFile(cfg.BeatsFile, cfg.BeatMinGap)
	}
	return beats.Detect(ctx, audio, cfg.BeatMinGap)
}

// resolveAudioEnd picks the planning horizon: --audio-end, else the probed
// duration, else the last beat plus one target period. --max-seconds caps
// the result.
func resolveAudioEnd(ctx context.Context, cfg *config.Config, log *logging.Logger, audio string, bs []float64) float64 {
	end := cfg.AudioEnd
	if end <= 0 {
		d, err := probe.AudioDuration(ctx, audio)
		if err == nil && d > 0 {
			end = d
		} else {
			log.Debug("No probed duration for %s (%v); using last beat + target", filepath.Base(audio), err)
			if len(bs) > 0 {
				end = bs[len(bs)-1]
			}
			end += cfg.TargetPeriod
		}
	}
	if cfg.MaxSeconds > 0 {
		end = math.Min(end, cfg.MaxSeconds)
	}
	return end
}

func allExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/beatcut/internal/config"
	"github.com/backmassage/beatcut/internal/display"
	"github.com/backmassage/beatcut/internal/logging"
	"github.com/backmassage/beatcut/internal/plan"
	"github.com/backmassage/beatcut/internal/render"
	"github.com/backmassage/beatcut/internal/store"
	"github.com/backmassage/beatcut/internal/timeline"
)

// tableRows caps the verbose plan table.
const tableRows = 40

// Run is the top-level CLI entry point. It resolves tracks, plans them
// concurrently, then saves and renders each in order. st receives every
// plan document when non-nil. The error covers setup failures only;
// per-track failures are counted in the stats.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, st store.Store) (RunStats, error) {
	var stats RunStats

	tracks, err := prepareTracks(ctx, cfg, log)
	if err != nil {
		return stats, err
	}
	stats.Total = len(tracks)
	logBatchHeader(cfg, log, &stats)

	planTracks(ctx, cfg, log, tracks)

	for i, t := range tracks {
		stats.Current = i + 1
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		processTrack(ctx, cfg, log, st, t, &stats)
	}

	logSummary(cfg, log, &stats)
	return stats, nil
}

// processTrack handles one planned track: report → persist → skip check →
// render.
func processTrack(ctx context.Context, cfg *config.Config, log *logging.Logger, st store.Store, t *track, stats *RunStats) {
	log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(t.Audio))

	if t.Err != nil {
		log.Error("Planning failed: %v", t.Err)
		stats.Failed++
		return
	}
	doc := t.Doc
	rp := doc.Plan

	log.Plan("%d beats -> %d cuts", len(doc.Beats), len(doc.Cuts))
	log.Plan("%s", display.PlanHeadline(rp))
	if log.Verbose() {
		log.Block(display.PlanTable(rp, tableRows))
	}

	// --- Persist ---
	if t.PlanOut != "" {
		if err := plan.Save(t.PlanOut, doc); err != nil {
			log.Error("Cannot write plan: %v", err)
		} else {
			log.Info("Plan saved: %s", t.PlanOut)
		}
	}
	if st != nil {
		if err := st.Put(ctx, doc); err != nil {
			log.Warn("Plan store: %v", err)
		} else {
			log.Debug("Plan stored: %s", doc.ID)
		}
	}

	if rp.Empty() {
		log.Warn("No cuts selected, nothing to render")
		stats.Skipped++
		return
	}

	// --- Skip-existing check ---
	if cfg.SkipExisting {
		if _, err := os.Stat(t.Output); err == nil {
			log.Warn("Skip (exists): %s", t.Output)
			stats.Skipped++
			return
		}
	}

	job := &render.Job{
		Plan:       rp,
		Images:     AssignImages(t.Images, len(rp.Segments)),
		Audio:      t.Audio,
		Output:     t.Output,
		Transition: doc.Params.Transition,
	}
	if job.Transition == "" {
		job.Transition = cfg.Transition
	}
	log.Render("Rendering %d stills -> %s", len(job.Images), t.Output)

	// --- Dry-run ---
	if cfg.DryRun {
		log.Success("[DRY] Would render %s", display.FormatSeconds(rp.TotalDuration))
		stats.Rendered++
		stats.Segments += len(rp.Segments)
		stats.OutputSeconds += rp.TotalDuration
		return
	}

	if err := os.MkdirAll(filepath.Dir(t.Output), 0o755); err != nil {
		log.Error("Cannot create output directory: %v", err)
		stats.Failed++
		return
	}

	start := time.Now()
	if !renderWithRetry(ctx, cfg, log, job) {
		log.Error("Render failed")
		os.Remove(t.Output)
		stats.Failed++
		return
	}

	var outSize int64
	if fi, err := os.Stat(t.Output); err == nil {
		outSize = fi.Size()
	}
	stats.Rendered++
	stats.Segments += len(rp.Segments)
	stats.OutputSeconds += rp.TotalDuration
	stats.TotalOutputBytes += outSize
	log.Success("Rendered in %ds (%s)", int(time.Since(start).Seconds()), display.FormatBytes(outSize))
}

// renderWithRetry runs ffmpeg, classifies stderr on failure, applies the
// first matching fix and retries. Returns true if ffmpeg eventually
// succeeds.
func renderWithRetry(ctx context.Context, cfg *config.Config, log *logging.Logger, job *render.Job) bool {
	rs := render.NewRetryState(cfg)
	for {
		args, err := render.Build(cfg, job, rs)
		if err != nil {
			log.Error("%v", err)
			return false
		}
		log.Debug("ffmpeg %s", strings.Join(args, " "))

		result := render.Execute(ctx, args, cfg.Verbose)
		if result.Err == nil {
			return true
		}

		// Stop retrying if the context has been cancelled (e.g. SIGINT).
		if ctx.Err() != nil {
			log.Warn("Interrupted, aborting retries")
			return false
		}

		if cfg.StrictRender {
			log.Error("ffmpeg failed (strict mode, no retry)")
			logStderr(log, result.Stderr)
			return false
		}
		if render.MatchImageIssue(result.Stderr) {
			log.Error("ffmpeg cannot decode a still")
			logStderr(log, result.Stderr)
			return false
		}

		action := rs.Advance(result.Stderr)
		if action == render.RetryNone {
			log.Error("ffmpeg failed (no applicable retry)")
			logStderr(log, result.Stderr)
			return false
		}

		log.Warn("Retry %d: %s", rs.Attempt, action)
		os.Remove(job.Output)
	}
}

func logStderr(log *logging.Logger, stderr string) {
	if stderr == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	for _, l := range lines[start:] {
		log.Error("  %s", l)
	}
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	if cfg.PlanIn != "" {
		log.Info("Replaying plan: %s", cfg.PlanIn)
	} else {
		log.Info("Found %d audio track(s)", stats.Total)
		if cfg.Preset != "" {
			log.Info("Preset: %s", cfg.Preset)
		}
		log.Info("Cuts: every %.2f-%.2fs, target %.2fs, min gap %.2fs", cfg.PeriodMin, cfg.PeriodMax, cfg.TargetPeriod, cfg.MinCutGap)
		if cfg.AllBeats {
			log.Info("Cuts: every beat")
		}
	}
	if cfg.Hardcuts {
		log.Info("Transitions: hard cuts only")
	} else {
		log.Info("Transitions: %s %.2fs (%s), hard cut below %.2fs", cfg.Transition, cfg.TransitionDuration, cfg.Align, cfg.MinEffective)
	}
	if cfg.FallbackStyle != timeline.EffectNone {
		log.Info("Hard-cut accent: %s %.2fs", cfg.FallbackStyle, cfg.FallbackDuration)
	}
	log.Info("Video: %dx%d @ %d fps, %s", cfg.Width, cfg.Height, cfg.FPS, cfg.EncoderMode)
	if cfg.StrictRender {
		log.Info("Retry policy: Strict mode (no auto-retry)")
	}
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d rendered, %d skipped, %d failed", stats.Rendered, stats.Skipped, stats.Failed)
	log.Info("  Segments: %d, output length %s", stats.Segments, display.FormatSeconds(stats.OutputSeconds))
	if cfg.DryRun {
		log.Info("  Output size: n/a (dry run)")
		return
	}
	log.Info("  Output size: %s", display.FormatBytes(stats.TotalOutputBytes))
}

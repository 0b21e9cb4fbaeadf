// Command beatcut plans beat-aligned slideshow cuts and renders them with
// ffmpeg. "beatcut serve" runs the HTTP planning service instead; --check
// prints system diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/beatcut/internal/check"
	"github.com/backmassage/beatcut/internal/config"
	"github.com/backmassage/beatcut/internal/display"
	"github.com/backmassage/beatcut/internal/logging"
	"github.com/backmassage/beatcut/internal/pipeline"
	"github.com/backmassage/beatcut/internal/server"
	"github.com/backmassage/beatcut/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load config from defaults, .env, BEATCUT_* and CLI flags; exit on parse or validation error.
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "beatcut: %v\n", err)
		return 1
	}
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "beatcut: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "beatcut: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "beatcut: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner(os.Stdout)

	// 2. If user asked for system check, run it and exit successfully.
	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Service mode: plans over HTTP, no rendering.
	if cfg.ServeMode {
		return serve(ctx, &cfg, log)
	}

	log.Info("=== beatcut v%s ===", config.Version)
	log.Info("Audio:  %s", cfg.AudioPath)
	log.Info("Images: %s", cfg.ImagesDir)
	log.Info("Out:    %s", cfg.OutputPath)
	if cfg.DryRun {
		log.Warn("DRY RUN")
	}

	// 4. Ensure ffmpeg/ffprobe/aubio and the render path are available; fail fast otherwise.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// 5. The CLI only persists to a store when one is configured explicitly.
	var st store.Store
	if cfg.Store.Backend != store.BackendMemory {
		st, err = store.Open(cfg.Store)
		if err != nil {
			log.Error("Plan store: %v", err)
			return 1
		}
	}

	stats, err := pipeline.Run(ctx, &cfg, log, st)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if !stats.OK() || ctx.Err() != nil {
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) int {
	st, err := store.Open(cfg.Store)
	if err != nil {
		log.Error("Plan store: %v", err)
		return 1
	}
	log.Info("Plan store: %s (cache %d)", cfg.Store.Backend, cfg.Store.CacheSize)

	srv := server.New(st, log, cfg.Params())
	if err := server.Run(ctx, cfg.Listen, srv.Router(), log); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/backmassage/beatcut/internal/config"
)

// perAudioSuffix is appended to the audio base name in per-audio mode.
const perAudioSuffix = "_beat.mp4"

// PerAudioOutput returns the render target for one audio file. outputDir
// is cfg.OutputPath, which names a directory in per-audio mode; the default
// file name maps to the working directory.
func PerAudioOutput(outputDir, audio string) string {
	if outputDir == "" || outputDir == config.DefaultOutput {
		outputDir = "."
	}
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	return filepath.Join(outputDir, base+perAudioSuffix)
}

// PlanOutputPath returns where the plan document for one track is written,
// or "" when plans are not saved. In per-audio mode planOut is a directory.
func PlanOutputPath(planOut, audio string, perAudio bool) string {
	if planOut == "" || !perAudio {
		return planOut
	}
	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	return filepath.Join(planOut, base+"_plan.json")
}

// CollisionResolver tracks output paths claimed by audio files and resolves
// duplicates (song.mp3 and song.wav both want song_beat.mp4) by appending
// "-N" to the stem. All methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // output path → audio path that owns it
	counters map[string]int    // base output path → next counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for input. If requested is
// unclaimed (or already owned by input) it is returned as-is.
func (cr *CollisionResolver) Resolve(input, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	owner, exists := cr.owners[requested]
	if !exists || owner == input {
		cr.owners[requested] = input
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := cr.counters[requested]
	if counter == 0 {
		counter = 2
	}
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
		cOwner, cExists := cr.owners[candidate]
		if !cExists || cOwner == input {
			cr.counters[requested] = counter + 1
			cr.owners[candidate] = input
			return candidate
		}
		counter++
	}
}

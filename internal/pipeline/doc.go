// Package pipeline orchestrates a CLI run: image and audio discovery,
// per-track planning, serialized rendering and the batch summary.
//
// Tracks are planned concurrently on a bounded errgroup (beat detection
// and probing dominate), then rendered one at a time because ffmpeg
// saturates the machine on its own.
package pipeline

// Package render turns a timeline.RenderPlan into an ffmpeg invocation and
// runs it with stderr-driven retry.
//
// Each segment is a looped still cut to its frame-exact duration. Crossfade
// boundaries chain xfade at the planned offset; hard cuts concat. Fallback
// accents and optional cut markers are drawn on the joined stream with
// enable=between(t,...) so they land on the planned instants. The filter
// graph is assembled with ffmpeg-go and flattened to an argument slice so
// the same args can be logged, tested and executed.
//
// Files:
//   - builder.go:  Build, MergeArgs and the filter graph helpers
//   - effects.go:  fallback accents and cut markers
//   - executor.go: Execute (stderr capture, optional tee)
//   - errors.go:   compiled stderr classifiers
//   - retry.go:    RetryState, one fix per attempt
package render

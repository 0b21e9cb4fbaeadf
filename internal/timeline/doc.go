// Package timeline turns cut timestamps into a frame-accurate render plan.
//
// Each segment is quantized to the frame grid on its own (no accumulated
// drift). Each boundary is classified by [ClassifyBoundary]: a crossfade when
// the clamped transition still reaches the minimum effective length,
// otherwise a hard cut with an optional fallback accent. The running
// timeline is kept in whole frames so that the declared total always equals
// the segment frames minus the crossfade overlap frames.
package timeline

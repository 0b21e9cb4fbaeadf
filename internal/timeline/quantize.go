package timeline

import "math"

// frameEps keeps re-quantizing an already quantized duration stable when
// d*fps lands a hair off an integer.
const frameEps = 1e-6

// QuantizeFrames snaps d seconds to a whole number of frames at fps using
// policy. The result is never below one frame.
func QuantizeFrames(d float64, fps int, policy Quantize) int {
	x := d * float64(fps)
	var f float64
	switch policy {
	case QuantizeFloor:
		f = math.Floor(x + frameEps)
	case QuantizeCeil:
		f = math.Ceil(x - frameEps)
	default:
		f = math.Round(x)
	}
	if f < 1 {
		return 1
	}
	return int(f)
}

// QuantizeDuration is QuantizeFrames expressed back in seconds.
func QuantizeDuration(d float64, fps int, policy Quantize) float64 {
	return FramesToSeconds(QuantizeFrames(d, fps, policy), fps)
}

// FramesToSeconds converts a frame count to seconds.
func FramesToSeconds(frames, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frames) / float64(fps)
}

// floorFrames truncates d to whole frames without the one-frame minimum.
func floorFrames(d float64, fps int) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d*float64(fps) + frameEps))
}

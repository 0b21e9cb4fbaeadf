package probe

import "strconv"

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
	Tags       map[string]string
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index         int
	Codec         string
	Channels      int
	ChannelLayout string
	SampleRate    int
	BitRate       int64
	Duration      float64
}

// VideoStream holds the properties of a picture stream (a still image or
// embedded cover art).
type VideoStream struct {
	Index  int
	Codec  string
	PixFmt string
	Width  int
	Height int
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
// Audio is the first audio stream (nil if none).
type ProbeResult struct {
	Format FormatInfo
	Audio  *AudioStream
	Video  *VideoStream
}

// Duration returns the container duration, falling back to the audio
// stream's own duration when the container does not report one.
func (p *ProbeResult) Duration() float64 {
	if p.Format.Duration > 0 {
		return p.Format.Duration
	}
	if p.Audio != nil {
		return p.Audio.Duration
	}
	return 0
}

// HasAudio reports whether an audio stream was found.
func (p *ProbeResult) HasAudio() bool { return p.Audio != nil }

// Resolution returns "WxH" for the picture stream, or "unknown".
func (p *ProbeResult) Resolution() string {
	if p.Video == nil || p.Video.Width <= 0 || p.Video.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(p.Video.Width) + "x" + strconv.Itoa(p.Video.Height)
}

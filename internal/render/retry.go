package render

import "github.com/backmassage/beatcut/internal/config"

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone        RetryAction = iota
	RetryCPUEncoder              // Switch h264_nvenc to libx264.
	RetryDropEffects             // Render without accents and cut markers.
	RetryHardcuts                // Replace every xfade with concat.
)

func (a RetryAction) String() string {
	switch a {
	case RetryCPUEncoder:
		return "cpu encoder"
	case RetryDropEffects:
		return "drop effects"
	case RetryHardcuts:
		return "hard cuts"
	}
	return "none"
}

const maxAttempts = 4

// RetryState tracks which fallback fixes have been applied across ffmpeg
// attempts for one render.
type RetryState struct {
	Attempt     int
	MaxAttempts int

	UseNVENC   bool
	Effects    bool // Fallback accents and cut markers.
	Crossfades bool // False renders every boundary as concat.
	Strict     bool // No fixes at all.
}

// NewRetryState initializes a RetryState from the render settings.
func NewRetryState(cfg *config.Config) *RetryState {
	return &RetryState{
		MaxAttempts: maxAttempts,
		UseNVENC:    cfg.EncoderMode == config.EncoderNVENC,
		Effects:     true,
		Crossfades:  true,
		Strict:      cfg.StrictRender,
	}
}

// Advance inspects stderr from a failed ffmpeg run and applies the first
// matching fix not yet applied. Returns RetryNone when nothing matches, the
// state is strict, or the attempt limit is reached.
//
// Order: encoder → effects → crossfades. One fix per call.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Strict || s.Attempt >= s.MaxAttempts {
		return RetryNone
	}
	if s.UseNVENC && MatchEncoderIssue(stderr) {
		s.UseNVENC = false
		return RetryCPUEncoder
	}
	if !MatchFilterIssue(stderr) {
		return RetryNone
	}
	if s.Effects {
		s.Effects = false
		return RetryDropEffects
	}
	if s.Crossfades {
		s.Crossfades = false
		return RetryHardcuts
	}
	return RetryNone
}

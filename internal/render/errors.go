package render

import "regexp"

// Pre-compiled regexes for classifying ffmpeg stderr output into retryable
// error categories. Checked in order by [RetryState.Advance].
var (
	reEncoderIssue = regexp.MustCompile(
		`(?i)Unknown encoder '?h264_nvenc|` +
			`No NVENC capable devices found|` +
			`Cannot load (libcuda|nvcuda|libnvidia-encode)|` +
			`OpenEncodeSessionEx failed|` +
			`Driver does not support the required nvenc API version|` +
			`Error while opening encoder for output stream .*nvenc`)

	reFilterIssue = regexp.MustCompile(
		`(?i)No such filter: '?(xfade|gblur|drawbox|eq)|` +
			`Error initializing (complex )?filters?|` +
			`Error reinitializing filters|` +
			`Failed to configure (input|output) pad|` +
			`Error applying option .* to filter`)

	reImageIssue = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`Could not find codec parameters for stream .*Video|` +
			`Error while decoding stream .*Video`)
)

// MatchEncoderIssue reports whether stderr shows the NVENC encoder is unusable.
func MatchEncoderIssue(stderr string) bool {
	return reEncoderIssue.MatchString(stderr)
}

// MatchFilterIssue reports whether stderr shows the filter graph was rejected.
func MatchFilterIssue(stderr string) bool {
	return reFilterIssue.MatchString(stderr)
}

// MatchImageIssue reports whether stderr points at an undecodable still.
// This is not retryable; the caller surfaces it as-is.
func MatchImageIssue(stderr string) bool {
	return reImageIssue.MatchString(stderr)
}

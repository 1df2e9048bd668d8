package ffmpeg

import "regexp"

// Stderr classifiers, checked in order by [RetryState.Advance]; the first
// matching pattern whose fix has not yet been applied wins.
var (
	reSubtitleIssue = regexp.MustCompile(
		`(?i)Subtitle codec .* is not supported|` +
			`Could not find tag for codec .* in stream .*subtitle|` +
			`Error initializing output stream .*subtitle|` +
			`Error while opening encoder for output stream .*subtitle|` +
			`Subtitle encoding currently only possible from text to text or bitmap to bitmap|` +
			`Codec .* is not supported`)

	reMuxQueueOverflow = regexp.MustCompile(
		`Too many packets buffered for output stream`)

	reTimestampIssue = regexp.MustCompile(
		`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
			`DTS .*out of order|PTS .*out of order|` +
			`pts has no value|missing PTS|Timestamps are unset`)

	reOutputExists = regexp.MustCompile(`already exists\. Exiting`)
)

// MatchSubtitleIssue reports whether stderr contains a subtitle muxing error.
func MatchSubtitleIssue(stderr string) bool {
	return reSubtitleIssue.MatchString(stderr)
}

// MatchMuxQueueOverflow reports whether stderr contains a mux queue overflow.
func MatchMuxQueueOverflow(stderr string) bool {
	return reMuxQueueOverflow.MatchString(stderr)
}

// MatchTimestampIssue reports whether stderr contains a timestamp discontinuity.
func MatchTimestampIssue(stderr string) bool {
	return reTimestampIssue.MatchString(stderr)
}

// MatchOutputExists reports whether ffmpeg refused to run because of -n.
func MatchOutputExists(stderr string) bool {
	return reOutputExists.MatchString(stderr)
}

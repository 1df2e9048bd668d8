package ffmpeg

import "github.com/backmassage/hevcsweep/internal/planner"

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone          RetryAction = iota
	RetryDropSubs                  // Replace -c:s copy with -sn.
	RetryIncreaseMux               // Add -max_muxing_queue_size.
	RetryFixTimestamps             // Add -fflags +genpts.
)

func (a RetryAction) String() string {
	switch a {
	case RetryDropSubs:
		return "skip subtitles"
	case RetryIncreaseMux:
		return "increase mux queue"
	case RetryFixTimestamps:
		return "fix timestamps"
	default:
		return "none"
	}
}

const (
	maxAttempts      = 4
	muxQueueEscalate = 16384
)

// RetryState tracks which fallback fixes have been applied across ffmpeg
// attempts for a single file.
type RetryState struct {
	Attempt     int
	MaxAttempts int

	IncludeSubs  bool
	MuxQueueSize int // 0 leaves ffmpeg's default.
	TimestampFix bool
}

// NewRetryState starts from the plan: subtitles included when the plan
// copies them, no extra flags.
func NewRetryState(plan planner.Plan) *RetryState {
	return &RetryState{
		MaxAttempts: maxAttempts,
		IncludeSubs: plan.Subtitles == planner.SubtitleCopy,
	}
}

// Advance inspects stderr from a failed run, applies the first fix that
// matches and has not been applied yet, and returns it. It returns
// RetryNone when nothing matches or the attempt limit is reached.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}

	if s.IncludeSubs && MatchSubtitleIssue(stderr) {
		s.IncludeSubs = false
		return RetryDropSubs
	}
	if s.MuxQueueSize < muxQueueEscalate && MatchMuxQueueOverflow(stderr) {
		s.MuxQueueSize = muxQueueEscalate
		return RetryIncreaseMux
	}
	if !s.TimestampFix && MatchTimestampIssue(stderr) {
		s.TimestampFix = true
		return RetryFixTimestamps
	}
	return RetryNone
}

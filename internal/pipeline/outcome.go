package pipeline

import (
	"errors"
	"time"

	"github.com/backmassage/hevcsweep/internal/probe"
)

// ErrOutputMissing is recorded when ffmpeg reported success but the output
// file does not exist.
var ErrOutputMissing = errors.New("output file missing after conversion")

// OutcomeKind classifies what happened to one candidate file.
type OutcomeKind int

const (
	OutcomeSkipped      OutcomeKind = iota // Not converted; touches no accumulator.
	OutcomeConverted                       // Output exists; counted and sized.
	OutcomeLimitReached                    // Converted, and its size met the size limit.
	OutcomeFailed                          // Conversion attempted and failed; not counted.
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeConverted:
		return "converted"
	case OutcomeLimitReached:
		return "limit-reached"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Counted reports whether the outcome advances the count and size
// accumulators.
func (k OutcomeKind) Counted() bool {
	return k == OutcomeConverted || k == OutcomeLimitReached
}

// Skip and failure reasons.
const (
	ReasonAlreadyHEVC    = "already HEVC"
	ReasonSamePath       = "output would overwrite input"
	ReasonOutputClaimed  = "output claimed by another input"
	ReasonInterrupted    = "interrupted"
	ReasonOutputAppeared = "output appeared during conversion"
)

// Outcome is the tagged result of processing one file.
type Outcome struct {
	Kind       OutcomeKind
	Input      string
	Output     string
	Codecs     probe.Codecs
	Bytes      int64 // Output size; zero unless Kind.Counted().
	InputBytes int64
	Reused     bool // Output already existed and was kept.
	Unverified bool // Reused with no finished conversion in the history ledger.
	DryRun     bool
	Reason     string
	Err        error
	Duration   time.Duration
}

// StopReason is the terminal state of a batch.
type StopReason int

const (
	StopCompleted   StopReason = iota // Every candidate visited.
	StopByCount                       // Count limit met before the next file.
	StopBySize                        // Size limit met after a file.
	StopInterrupted                   // Context cancelled.
	StopAborted                       // Probe failure without keep-going, or discovery error.
)

func (s StopReason) String() string {
	switch s {
	case StopCompleted:
		return "completed"
	case StopByCount:
		return "stopped by count limit"
	case StopBySize:
		return "stopped by size limit"
	case StopInterrupted:
		return "interrupted"
	case StopAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

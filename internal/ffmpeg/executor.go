package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/planner"
)

// ErrTranscode wraps every failed ffmpeg invocation.
var ErrTranscode = errors.New("ffmpeg failed")

// Result holds the outcome of a single ffmpeg invocation.
type Result struct {
	Stderr string
	Err    error
}

// Transcoder runs one conversion attempt.
type Transcoder interface {
	Transcode(ctx context.Context, job Job, plan planner.Plan, rs *RetryState) Result
}

// Executor runs the ffmpeg binary. When Tee is non-nil, stderr is copied
// to it in real time as well as captured for retry classification.
type Executor struct {
	Binary  string
	Encoder config.Encoder
	Tee     io.Writer
}

// Command returns the full argv, binary first, for job.
func (e *Executor) Command(job Job, plan planner.Plan, rs *RetryState) []string {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	return append([]string{bin}, Build(e.Encoder, job, plan, rs)...)
}

// Transcode runs ffmpeg once. Cancelling ctx kills the process.
func (e *Executor) Transcode(ctx context.Context, job Job, plan planner.Plan, rs *RetryState) Result {
	argv := e.Command(job, plan, rs)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderrBuf bytes.Buffer
	if e.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.Tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	var err error
	if runErr := cmd.Run(); runErr != nil {
		err = fmt.Errorf("%w: %s: %w", ErrTranscode, job.Input, runErr)
	}
	return Result{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

package ffmpeg

import (
	"strconv"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/planner"
)

// Job is one conversion: a source file and the output it produces.
type Job struct {
	Input  string
	Output string
}

// Build constructs the ffmpeg argument slice (without the binary name) for
// job. The retry state adds the recovery flags applied so far; a nil state
// yields the first-attempt command.
//
//	-n [-fflags +genpts] -i <in> -c:v <codec> -profile:v <p> -rc <rc>
//	-cq <q> -rc-lookahead <n> -g <n> -c:a copy|aac (-sn | -c:s copy)
//	[-max_muxing_queue_size <n>] <out>
func Build(enc config.Encoder, job Job, plan planner.Plan, rs *RetryState) []string {
	if rs == nil {
		rs = NewRetryState(plan)
	}
	args := make([]string, 0, 32)

	args = append(args, "-n")
	if rs.TimestampFix {
		args = append(args, "-fflags", "+genpts")
	}
	args = append(args, "-i", job.Input)

	args = append(args,
		"-c:v", enc.Codec,
		"-profile:v", enc.Profile,
		"-rc", enc.RateControl,
		"-cq", strconv.Itoa(enc.Quality),
		"-rc-lookahead", strconv.Itoa(enc.Lookahead),
		"-g", strconv.Itoa(enc.KeyframeInterval),
	)

	if plan.Audio == planner.AudioCopy {
		args = append(args, "-c:a", "copy")
	} else {
		args = append(args, "-c:a", "aac")
	}

	if plan.Subtitles == planner.SubtitleCopy && rs.IncludeSubs {
		args = append(args, "-c:s", "copy")
	} else {
		args = append(args, "-sn")
	}

	if rs.MuxQueueSize > 0 {
		args = append(args, "-max_muxing_queue_size", strconv.Itoa(rs.MuxQueueSize))
	}

	return append(args, job.Output)
}

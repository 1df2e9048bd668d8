package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/display"
	"github.com/backmassage/hevcsweep/internal/ffmpeg"
	"github.com/backmassage/hevcsweep/internal/history"
	"github.com/backmassage/hevcsweep/internal/logging"
	"github.com/backmassage/hevcsweep/internal/naming"
	"github.com/backmassage/hevcsweep/internal/planner"
	"github.com/backmassage/hevcsweep/internal/probe"
)

// Ledger stores file outcomes across runs.
type Ledger interface {
	Record(ctx context.Context, e history.Entry) error
	ConvertedBefore(ctx context.Context, input string) (bool, error)
}

// Runner executes one batch. Prober and Transcoder default to the real
// ffprobe and ffmpeg binaries from Config; Ledger is optional.
type Runner struct {
	Config     *config.Config
	Log        *logging.Logger
	Prober     probe.Prober
	Transcoder ffmpeg.Transcoder
	Ledger     Ledger
	Out        io.Writer // Summary table destination.
	RunID      string

	ledgerFailed bool
}

// NewRunner wires the external tools named in cfg.
func NewRunner(cfg *config.Config, log *logging.Logger) *Runner {
	ex := &ffmpeg.Executor{
		Binary:  cfg.FFmpegBinary,
		Encoder: cfg.Encoder,
	}
	if log.Verbose() {
		ex.Tee = os.Stderr
	}
	return &Runner{
		Config:     cfg,
		Log:        log,
		Prober:     probe.FFprobe{Binary: cfg.FFprobeBinary},
		Transcoder: ex,
		Out:        os.Stdout,
	}
}

// Run processes every candidate under root until the tree is exhausted, a
// limit is met, ctx is cancelled, or a probe failure aborts the batch. The
// returned error is non-nil only for an abort.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	cfg := r.Config
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	r.Log.SetRunID(r.RunID)

	sum := Summary{
		RunID:   r.RunID,
		Root:    root,
		DryRun:  cfg.DryRun,
		Started: time.Now(),
	}

	files, err := Discover(root, cfg.Extensions, r.warnUnreadable)
	if err != nil {
		sum.Stop = StopAborted
		sum.Finished = time.Now()
		return sum, fmt.Errorf("discover %s: %w", root, err)
	}
	sum.Discovered = len(files)

	limits := Limits{Bytes: cfg.SizeLimitBytes}
	if cfg.CountLimitEnabled() {
		limits.Count = cfg.Limit
	}
	r.logBatchHeader(root, len(files), limits)

	batch := NewBatch(limits)
	claims := naming.NewOutputClaims()
	sum.Stop = StopCompleted
	var runErr error

	for _, path := range files {
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted")
			sum.Stop = StopInterrupted
			break
		}
		if batch.CountReached() {
			r.Log.Warn("Reached the conversion limit of %d files.", limits.Count)
			sum.Stop = StopByCount
			break
		}

		o, err := r.processFile(ctx, path, claims)
		o = batch.Record(o)
		sum.add(o)
		r.record(ctx, o)

		if err != nil {
			r.Log.Error("Aborting batch: %v", err)
			sum.Stop = StopAborted
			runErr = err
			break
		}
		if o.Kind == OutcomeLimitReached {
			r.Log.Warn("Size limit of %d bytes reached. Stopping conversions.", limits.Bytes)
			sum.Stop = StopBySize
			break
		}
	}

	if sum.Stop == StopCompleted && ctx.Err() != nil {
		sum.Stop = StopInterrupted
	}
	sum.absorb(batch)
	sum.Finished = time.Now()
	r.logSummary(&sum)
	return sum, runErr
}

// processFile runs one candidate through skip checks, probe, plan, and
// conversion. A non-nil error means the batch must abort.
func (r *Runner) processFile(ctx context.Context, path string, claims *naming.OutputClaims) (Outcome, error) {
	cfg := r.Config
	base := filepath.Base(path)
	o := Outcome{Input: path}

	if naming.IsHEVC(base) {
		r.Log.Info("Skipping %s as it's already in x265/HEVC format.", base)
		o.Kind, o.Reason = OutcomeSkipped, ReasonAlreadyHEVC
		return o, nil
	}

	output := naming.OutputPath(path, naming.DefaultContainer)
	o.Output = output
	if filepath.Clean(output) == filepath.Clean(path) {
		r.Log.Warn("Skipping %s: %s", base, ReasonSamePath)
		o.Kind, o.Reason = OutcomeSkipped, ReasonSamePath
		return o, nil
	}
	if owner, ok := claims.Claim(path, output); !ok {
		r.Log.Warn("Skipping %s: %s is already produced from %s", base, filepath.Base(output), filepath.Base(owner))
		o.Kind, o.Reason = OutcomeSkipped, ReasonOutputClaimed
		return o, nil
	}
	if fi, err := os.Stat(path); err == nil {
		o.InputBytes = fi.Size()
	}

	codecs, err := r.Prober.Probe(ctx, path)
	if err != nil {
		o.Kind, o.Err = OutcomeFailed, err
		if ctx.Err() != nil {
			o.Reason = ReasonInterrupted
			return o, nil
		}
		o.Reason = err.Error()
		r.Log.Error("Cannot probe %s: %v", path, err)
		if cfg.KeepGoing {
			return o, nil
		}
		return o, fmt.Errorf("probe %s: %w", path, err)
	}
	o.Codecs = codecs

	r.Log.Info("Processing: %s", path)
	r.Log.Info("Detected Codecs:")
	r.Log.Info("  Video Codec   : %s", codecs.VideoLabel())
	r.Log.Info("  Audio Codec   : %s", codecs.AudioLabel())
	r.Log.Info("  Subtitle Codec: %s", codecs.SubtitleLabel())

	plan := planner.Build(codecs)
	job := ffmpeg.Job{Input: path, Output: output}
	r.Log.Debug("Plan: %s", plan.Describe())

	if fi, err := os.Stat(output); err == nil {
		r.Log.Warn("Output already exists, keeping it: %s", output)
		if r.Ledger != nil && !r.ledgerFailed {
			prior, err := r.Ledger.ConvertedBefore(ctx, path)
			switch {
			case err != nil:
				r.Log.Debug("History lookup for %s failed: %v", base, err)
			case !prior:
				r.Log.Warn("No finished conversion of %s on record; %s may be a partial output from an interrupted run", base, filepath.Base(output))
				o.Unverified = true
			}
		}
		o.Kind, o.Reused, o.Bytes = OutcomeConverted, true, fi.Size()
		return o, nil
	}

	if cfg.DryRun {
		argv := append([]string{cfg.FFmpegBinary}, ffmpeg.Build(cfg.Encoder, job, plan, nil)...)
		r.Log.Success("[DRY] Would run: %s", strings.Join(argv, " "))
		o.Kind, o.DryRun = OutcomeConverted, true
		return o, nil
	}

	start := time.Now()
	res := r.transcodeWithRetry(ctx, job, plan)
	o.Duration = time.Since(start)

	if res.Err != nil {
		o.Kind, o.Err = OutcomeFailed, res.Err
		switch {
		case ctx.Err() != nil:
			o.Reason = ReasonInterrupted
			r.removePartial(output)
		case ffmpeg.MatchOutputExists(res.Stderr):
			o.Reason = ReasonOutputAppeared
		default:
			o.Reason = res.Err.Error()
			r.removePartial(output)
		}
		r.Log.Error("Conversion failed: %s (%s)", base, o.Reason)
		fmt.Fprintln(r.out())
		return o, nil
	}

	fi, err := os.Stat(output)
	if err != nil {
		o.Kind, o.Err, o.Reason = OutcomeFailed, ErrOutputMissing, ErrOutputMissing.Error()
		r.Log.Error("%s: %s", ErrOutputMissing, output)
		fmt.Fprintln(r.out())
		return o, nil
	}

	o.Kind, o.Bytes = OutcomeConverted, fi.Size()
	r.Log.Success("Output saved to: %s", output)
	r.Log.Debug("Converted in %ds, %s", int(o.Duration.Seconds()), display.FormatBytes(o.Bytes))
	fmt.Fprintln(r.out())
	return o, nil
}

// transcodeWithRetry runs ffmpeg, classifies stderr on failure, applies the
// first matching fix, and tries again until success or no fix applies.
func (r *Runner) transcodeWithRetry(ctx context.Context, job ffmpeg.Job, plan planner.Plan) ffmpeg.Result {
	rs := ffmpeg.NewRetryState(plan)
	for {
		res := r.Transcoder.Transcode(ctx, job, plan, rs)
		if res.Err == nil {
			return res
		}

		if ctx.Err() != nil {
			r.Log.Warn("Interrupted, aborting retries")
			return res
		}
		if ffmpeg.MatchOutputExists(res.Stderr) {
			return res
		}
		if r.Config.StrictMode {
			r.Log.Error("ffmpeg failed (strict mode, no retry)")
			r.logStderr(res.Stderr)
			return res
		}

		action := rs.Advance(res.Stderr)
		if action == ffmpeg.RetryNone {
			r.Log.Error("ffmpeg failed (no applicable retry)")
			r.logStderr(res.Stderr)
			return res
		}

		r.Log.Warn("Retry %d: %s", rs.Attempt, action)
		r.removePartial(job.Output)
	}
}

// removePartial deletes an incomplete output. A missing file is fine.
func (r *Runner) removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.Log.Warn("Could not remove partial output %s: %v", path, err)
	}
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

// record writes o to the log file and the ledger. A ledger failure is
// reported once and never stops the batch.
func (r *Runner) record(ctx context.Context, o Outcome) {
	r.Log.Event("file outcome",
		"input", o.Input,
		"output", o.Output,
		"kind", o.Kind.String(),
		"bytes", o.Bytes,
		"reused", o.Reused,
		"dry_run", o.DryRun,
		"reason", o.Reason,
		"video", o.Codecs.Video,
		"audio", o.Codecs.Audio,
		"subtitle", o.Codecs.Subtitle,
	)

	if r.Ledger == nil || r.ledgerFailed {
		return
	}
	err := r.Ledger.Record(context.WithoutCancel(ctx), history.Entry{
		RunID:         r.RunID,
		Input:         o.Input,
		Output:        o.Output,
		Kind:          o.Kind.String(),
		Bytes:         o.Bytes,
		Reused:        o.Reused,
		DryRun:        o.DryRun,
		VideoCodec:    o.Codecs.Video,
		AudioCodec:    o.Codecs.Audio,
		SubtitleCodec: o.Codecs.Subtitle,
		Reason:        o.Reason,
	})
	if err != nil {
		r.ledgerFailed = true
		r.Log.Warn("History disabled for this run: %v", err)
	}
}

func (r *Runner) warnUnreadable(path string, err error) {
	r.Log.Warn("Skipping unreadable directory %s: %v", path, err)
}

func (r *Runner) logStderr(stderr string) {
	if stderr == "" {
		return
	}
	r.Log.Error("Last ffmpeg output:")
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	for _, l := range lines[start:] {
		r.Log.Error("  %s", l)
	}
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(root string, total int, limits Limits) {
	cfg := r.Config
	enc := cfg.Encoder
	r.Log.Info("Found %d candidate files in %s", total, root)
	r.Log.Info("Video: %s (%s), rc %s, cq %d, lookahead %d, GOP %d",
		enc.Codec, enc.Profile, enc.RateControl, enc.Quality, enc.Lookahead, enc.KeyframeInterval)
	r.Log.Info("Audio: copy AAC/AC-3/E-AC-3, otherwise encode to AAC")
	r.Log.Info("Subtitles: copy when present")

	countLabel := "none"
	if limits.Count > 0 {
		countLabel = fmt.Sprintf("%d files", limits.Count)
	}
	sizeLabel := "none"
	if limits.Bytes > 0 {
		sizeLabel = display.FormatBytes(limits.Bytes)
	}
	r.Log.Info("Limits: count %s, size %s", countLabel, sizeLabel)

	if cfg.DryRun {
		r.Log.Info("Mode: dry run (nothing is written)")
	}
	if cfg.StrictMode {
		r.Log.Info("Retry policy: Strict mode (no auto-retry)")
	}
	if cfg.KeepGoing {
		r.Log.Info("Probe failures: record and continue")
	}
	fmt.Fprintln(r.out())
}

func (r *Runner) logSummary(sum *Summary) {
	if sum.Stop == StopCompleted {
		r.Log.Success("Conversion completed. Total files processed: %d.", sum.Converted)
	}
	r.Log.Info("==============================")
	r.Log.Info("Done (%s): %d converted, %d skipped, %d failed", sum.Stop, sum.Converted, sum.Skipped, sum.Failed)

	if table := summaryTable(sum.Outcomes); table != "" {
		fmt.Fprintln(r.out(), table)
	}

	if sum.DryRun {
		r.Log.Info("  Total written: n/a (dry run)")
		return
	}
	r.Log.Info("  Total written: %s", display.FormatBytes(sum.Bytes))
	if sum.TotalInputBytes == 0 {
		return
	}
	saved := sum.SpaceSaved()
	if saved >= 0 {
		r.Log.Success("  Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(sum.TotalInputBytes),
			display.FormatBytes(sum.TotalOutputBytes))
	} else {
		r.Log.Warn("  Total space saved: %s (overall output is larger)",
			display.FormatBytesWithSign(saved))
	}
}

// summaryTable renders counted and failed outcomes; skips are left out.
func summaryTable(outcomes []Outcome) string {
	var rows [][]string
	for _, o := range outcomes {
		if o.Kind == OutcomeSkipped {
			continue
		}
		size := "-"
		if o.Kind.Counted() && !o.DryRun {
			size = display.FormatBytes(o.Bytes)
		}
		note := o.Reason
		switch {
		case o.Unverified:
			note = "existing output, not in history"
		case o.Reused:
			note = "existing output"
		case o.DryRun:
			note = "dry run"
		}
		rows = append(rows, []string{
			filepath.Base(o.Input),
			filepath.Base(o.Output),
			o.Kind.String(),
			size,
			note,
		})
	}
	if len(rows) == 0 {
		return ""
	}
	return display.RenderTable(
		[]string{"Input", "Output", "Result", "Size", "Note"},
		rows,
		[]display.Align{display.AlignLeft, display.AlignLeft, display.AlignLeft, display.AlignRight, display.AlignLeft},
	)
}

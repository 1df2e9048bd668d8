package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/hevcsweep/internal/display"
	"github.com/backmassage/hevcsweep/internal/naming"
	"github.com/backmassage/hevcsweep/internal/planner"
	"github.com/backmassage/hevcsweep/internal/term"
)

// Action labels used by Analyze.
const (
	ActionConvert     = "convert"
	ActionReuse       = "reuse output"
	ActionSkipHEVC    = "skip (HEVC)"
	ActionSkipSame    = "skip (same path)"
	ActionSkipClaimed = "skip (output claimed)"
	ActionProbeFailed = "probe failed"
)

// AnalyzeRow is one file of an analysis report.
type AnalyzeRow struct {
	Input  string
	Output string
	Video  string
	Audio  string
	Subs   string
	Plan   string // planner.Plan.Describe(); empty unless probed.
	Action string
}

// Analyze walks root, probes every candidate, and writes a table of what a
// batch would do with each file. Nothing is converted and no limits apply.
// Probe failures become rows instead of errors.
func (r *Runner) Analyze(ctx context.Context, root string) ([]AnalyzeRow, error) {
	files, err := Discover(root, r.Config.Extensions, r.warnUnreadable)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	if len(files) == 0 {
		r.Log.Warn("No candidate files found in %s", root)
		return nil, nil
	}

	total := len(files)
	r.Log.Info("Analyzing %d files in %s", total, root)

	isTTY := term.IsTerminal(os.Stdout) && r.Out == os.Stdout
	claims := naming.NewOutputClaims()
	rows := make([]AnalyzeRow, 0, total)

	for i, path := range files {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(r.out())
			}
			r.Log.Warn("Interrupted")
			return rows, ctx.Err()
		}
		printProgress(r.out(), isTTY, i+1, total, filepath.Base(path))
		rows = append(rows, r.analyzeFile(ctx, path, claims))
	}
	if isTTY {
		clearProgress(r.out())
	}

	fmt.Fprintln(r.out(), analyzeTable(rows))
	r.logAnalyzeSummary(rows)
	return rows, nil
}

func (r *Runner) analyzeFile(ctx context.Context, path string, claims *naming.OutputClaims) AnalyzeRow {
	row := AnalyzeRow{Input: path, Video: "-", Audio: "-", Subs: "-"}
	if naming.IsHEVC(filepath.Base(path)) {
		row.Action = ActionSkipHEVC
		return row
	}

	row.Output = naming.OutputPath(path, naming.DefaultContainer)
	if filepath.Clean(row.Output) == filepath.Clean(path) {
		row.Action = ActionSkipSame
		return row
	}
	if _, ok := claims.Claim(path, row.Output); !ok {
		row.Action = ActionSkipClaimed
		return row
	}

	codecs, err := r.Prober.Probe(ctx, path)
	if err != nil {
		r.Log.Debug("probe %s: %v", path, err)
		row.Action = ActionProbeFailed
		return row
	}
	row.Video = codecs.VideoLabel()
	row.Audio = codecs.AudioLabel()
	row.Subs = codecs.SubtitleLabel()
	row.Plan = planner.Build(codecs).Describe()

	if _, err := os.Stat(row.Output); err == nil {
		row.Action = ActionReuse
		return row
	}
	row.Action = ActionConvert
	return row
}

func analyzeTable(rows []AnalyzeRow) string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		output := "-"
		if row.Output != "" {
			output = filepath.Base(row.Output)
		}
		plan := row.Plan
		if plan == "" {
			plan = "-"
		}
		out = append(out, []string{
			truncate(filepath.Base(row.Input), 50),
			row.Video,
			row.Audio,
			row.Subs,
			plan,
			row.Action,
			truncate(output, 50),
		})
	}
	return display.RenderTable(
		[]string{"File", "Video", "Audio", "Subtitles", "Plan", "Action", "Output"},
		out,
		nil,
	)
}

func (r *Runner) logAnalyzeSummary(rows []AnalyzeRow) {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Action]++
	}
	r.Log.Info("Analyzed %d files: %d to convert, %d reusable, %d already HEVC",
		len(rows), counts[ActionConvert], counts[ActionReuse], counts[ActionSkipHEVC])
	if n := counts[ActionSkipSame] + counts[ActionSkipClaimed]; n > 0 {
		r.Log.Warn("  %d file(s) would be skipped to protect existing outputs", n)
	}
	if n := counts[ActionProbeFailed]; n > 0 {
		r.Log.Error("  %d file(s) could not be probed", n)
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// printProgress shows a live probe counter on a TTY; otherwise it is a no-op.
func printProgress(w io.Writer, isTTY bool, current, total int, name string) {
	if !isTTY {
		return
	}
	status := fmt.Sprintf("  Probing [%d/%d] %d%% %s", current, total, current*100/total, truncate(name, 40))
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(w, "\r%s", status)
}

func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/hevcsweep/internal/check"
	"github.com/backmassage/hevcsweep/internal/display"
	"github.com/backmassage/hevcsweep/internal/history"
	"github.com/backmassage/hevcsweep/internal/pipeline"
)

var errHistoryDisabled = errors.New("history is disabled (no history_path configured)")

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Check ffmpeg, ffprobe, the HEVC encoder, AAC and directory access",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts, root)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			display.PrintBanner(cmd.OutOrStdout())
			if !check.Run(cmd.Context(), cfg, root, log) {
				return exitError{code: exitFailure}
			}
			return nil
		},
	}
}

func newAnalyzeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Probe every candidate and show what a batch would do, without converting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts, root)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			runner := pipeline.NewRunner(cfg, log)
			runner.Out = cmd.OutOrStdout()
			rows, err := runner.Analyze(cmd.Context(), root)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if row.Action == pipeline.ActionProbeFailed {
					return exitError{code: exitFailure}
				}
			}
			return nil
		},
	}
}

func newHistoryCommand(opts *options) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent conversion outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, ".")
			if err != nil {
				return err
			}
			path := cfg.HistoryPath
			if path == "" {
				return errHistoryDisabled
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No history recorded yet (%s)\n", path)
				return nil
			}

			ledger, err := history.Open(path)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Recent(cmd.Context(), count)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 = all)")
	return cmd
}

func renderHistory(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		size := "-"
		if e.Bytes > 0 {
			size = display.FormatBytes(e.Bytes)
		}
		note := e.Reason
		switch {
		case e.Reused:
			note = "existing output"
		case e.DryRun:
			note = "dry run"
		}
		output := "-"
		if e.Output != "" {
			output = filepath.Base(e.Output)
		}
		rows = append(rows, []string{
			display.FormatAge(e.CreatedAt),
			e.Kind,
			filepath.Base(e.Input),
			output,
			size,
			note,
		})
	}
	return display.RenderTable(
		[]string{"When", "Result", "Input", "Output", "Size", "Note"},
		rows,
		[]display.Align{display.AlignLeft, display.AlignLeft, display.AlignLeft, display.AlignLeft, display.AlignRight, display.AlignLeft},
	)
}

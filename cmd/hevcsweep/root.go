package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/hevcsweep/internal/check"
	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/display"
	"github.com/backmassage/hevcsweep/internal/history"
	"github.com/backmassage/hevcsweep/internal/logging"
	"github.com/backmassage/hevcsweep/internal/pipeline"
	"github.com/backmassage/hevcsweep/internal/runlock"
)

// options holds raw flag values. Only flags the user actually set
// override the loaded config.
type options struct {
	configPath string
	verbose    bool
	color      string
	noColor    bool
	logFile    string

	limit     int
	size      string
	dryRun    bool
	strict    bool
	keepGoing bool
	history   string
	noHistory bool
	noLock    bool
	skipCheck bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "hevcsweep [dir]",
		Short: "Batch-convert videos to HEVC (NVENC) with AAC audio",
		Long: `hevcsweep walks a directory tree and converts every .mp4, .mkv and .avi
file that is not already HEVC into an .mkv next to the source, with codec
tokens in the filename rewritten. It stops after --limit files (default 10)
or once --size bytes of output have been written.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (TOML or YAML)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output, including ffmpeg stderr")
	pf.StringVar(&opts.color, "color", "", "Color output: auto, always or never")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&opts.logFile, "log", "", "Write JSON log records to this file (rotated)")

	f := rootCmd.Flags()
	f.IntVar(&opts.limit, "limit", 10, "Maximum number of files to convert (0 = no limit)")
	f.StringVar(&opts.size, "size", "0", "Stop once this much output is written, e.g. 500M, 10G (0 = no limit)")
	f.BoolVarP(&opts.dryRun, "dry-run", "d", false, "Log the ffmpeg commands without running them")
	f.BoolVar(&opts.strict, "strict", false, "Do not retry failed conversions with fallback flags")
	f.BoolVar(&opts.keepGoing, "keep-going", false, "Record probe failures and continue instead of aborting")
	f.StringVar(&opts.history, "history", "", "Conversion history database path")
	f.BoolVar(&opts.noHistory, "no-history", false, "Do not record conversion history")
	f.BoolVar(&opts.noLock, "no-lock", false, "Do not take the directory lock")
	f.BoolVar(&opts.skipCheck, "skip-check", false, "Skip the ffmpeg/ffprobe preflight check")

	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}

// loadConfig layers defaults, the config file, .env and environment
// overrides, and changed flags, then validates the result.
func loadConfig(cmd *cobra.Command, opts *options, root string) (*config.Config, error) {
	cfg, _, _, err := loadConfigFile(cmd, opts, root)
	return cfg, err
}

// loadConfigFile is loadConfig that also reports which file was read and
// whether it existed.
func loadConfigFile(cmd *cobra.Command, opts *options, root string) (*config.Config, string, bool, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", false, err
	}
	cfg, path, exists, err := config.Load(strings.TrimSpace(opts.configPath))
	if err != nil {
		return nil, "", false, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, "", false, err
	}
	cfg.Root = root
	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, path, exists, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if changed("color") {
		cfg.ColorMode = config.ColorMode(strings.ToLower(strings.TrimSpace(opts.color)))
	}
	if changed("no-color") && opts.noColor {
		cfg.ColorMode = config.ColorNever
	}
	if changed("log") {
		path, err := config.ExpandPath(opts.logFile)
		if err != nil {
			return fmt.Errorf("--log: %w", err)
		}
		cfg.LogFile = path
	}
	if changed("limit") {
		cfg.Limit = opts.limit
	}
	if changed("size") {
		cfg.Size = opts.size
	}
	if changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if changed("strict") {
		cfg.StrictMode = opts.strict
	}
	if changed("keep-going") {
		cfg.KeepGoing = opts.keepGoing
	}
	if changed("history") {
		path, err := config.ExpandPath(opts.history)
		if err != nil {
			return fmt.Errorf("--history: %w", err)
		}
		cfg.HistoryPath = path
	}
	if changed("no-history") && opts.noHistory {
		cfg.HistoryPath = ""
	}
	if changed("no-lock") && opts.noLock {
		cfg.Lock = false
	}
	return nil
}

// resolveRoot returns the absolute scan root from the optional positional
// argument and verifies it is a directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root %s is not a directory", abs)
	}
	return abs, nil
}

// newLogger opens the console logger on the command's writers.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, error) {
	return logging.NewWithWriters(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func runBatch(cmd *cobra.Command, opts *options, args []string) error {
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

	out := cmd.OutOrStdout()
	display.PrintBanner(out)
	log.Info("=== hevcsweep v%s (%s) ===", version, commit)
	log.Info("Root: %s", root)
	if cfg.DryRun {
		log.Warn("DRY RUN, no files will be written")
	}

	ctx := cmd.Context()
	if !opts.skipCheck {
		if err := check.CheckDeps(ctx, cfg, root); err != nil {
			log.Error("%v", err)
			log.Error("Run `hevcsweep check` for details, or pass --skip-check")
			return exitError{code: exitFailure}
		}
	}

	if cfg.Lock {
		lock, err := runlock.Acquire(root)
		if err != nil {
			log.Error("%v", err)
			return exitError{code: exitFailure}
		}
		log.Debug("Holding lock %s", lock.Path())
		defer func() {
			if err := lock.Release(); err != nil {
				log.Warn("%v", err)
			}
		}()
	}

	runner := pipeline.NewRunner(cfg, log)
	runner.Out = out
	if cfg.HistoryPath != "" {
		ledger, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn("History disabled: %v", err)
		} else {
			defer ledger.Close()
			runner.Ledger = ledger
			log.Debug("Recording history in %s", ledger.Path())
		}
	}

	sum, err := runner.Run(ctx, root)
	log.Debug("Run %s finished in %s", sum.RunID, sum.Elapsed().Round(time.Millisecond))
	switch {
	case sum.Stop == pipeline.StopInterrupted:
		return exitError{code: exitInterrupted}
	case err != nil, !sum.OK():
		return exitError{code: exitFailure}
	}
	return nil
}

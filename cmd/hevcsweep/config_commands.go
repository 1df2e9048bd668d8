package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/display"
)

func newConfigCommand(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(opts))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := loadConfigFile(cmd, opts, ".")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderSettings(cfg))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func renderSettings(cfg *config.Config) string {
	limit := "none"
	if cfg.CountLimitEnabled() {
		limit = fmt.Sprintf("%d files", cfg.Limit)
	}
	size := "none"
	if cfg.SizeLimitEnabled() {
		size = fmt.Sprintf("%s (%d bytes)", display.FormatBytes(cfg.SizeLimitBytes), cfg.SizeLimitBytes)
	}
	history := cfg.HistoryPath
	if history == "" {
		history = "disabled"
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "none"
	}
	enc := cfg.Encoder

	rows := [][]string{
		{"extensions", strings.Join(cfg.Extensions, " ")},
		{"limit", limit},
		{"size", size},
		{"ffmpeg", cfg.FFmpegBinary},
		{"ffprobe", cfg.FFprobeBinary},
		{"encoder", fmt.Sprintf("%s %s, rc %s, cq %d, lookahead %d, gop %d",
			enc.Codec, enc.Profile, enc.RateControl, enc.Quality, enc.Lookahead, enc.KeyframeInterval)},
		{"strict", yesNo(cfg.StrictMode)},
		{"keep going", yesNo(cfg.KeepGoing)},
		{"lock", yesNo(cfg.Lock)},
		{"history", history},
		{"log file", logFile},
		{"log rotation", fmt.Sprintf("%d MB x %d", cfg.LogMaxSizeMB, cfg.LogMaxBackups)},
	}
	return display.RenderTable([]string{"Setting", "Value"}, rows, nil)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// Package config holds runtime configuration: defaults, config file and
// environment loading, size-limit parsing, and validation. CLI flags are
// applied on top by cmd/hevcsweep before Validate runs.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Encoder is the fixed video encoding profile handed to ffmpeg. The
// defaults describe NVENC HEVC Main10 at constant QP.
type Encoder struct {
	Codec            string `toml:"codec" yaml:"codec"`                         // Default: "hevc_nvenc".
	Profile          string `toml:"profile" yaml:"profile"`                     // Default: "main10".
	RateControl      string `toml:"rate_control" yaml:"rate_control"`           // Default: "constqp".
	Quality          int    `toml:"quality" yaml:"quality"`                     // Default: 20 (-cq).
	Lookahead        int    `toml:"lookahead" yaml:"lookahead"`                 // Default: 32 frames.
	KeyframeInterval int    `toml:"keyframe_interval" yaml:"keyframe_interval"` // Default: 600 frames.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid by [Load] and CLI flags, then finalized by [Config.Validate].
type Config struct {
	// Scan root (positional argument, never read from a file).
	Root string `toml:"-" yaml:"-"`

	// Candidate extensions, lowercase with leading dot.
	Extensions []string `toml:"extensions" yaml:"extensions"`

	// Stopping conditions. Limit <= 0 disables the count limit; Size "0"
	// disables the size limit. SizeLimitBytes is derived by Validate.
	Limit          int    `toml:"limit" yaml:"limit"`
	Size           string `toml:"size" yaml:"size"`
	SizeLimitBytes int64  `toml:"-" yaml:"-"`

	// External tools.
	FFmpegBinary  string `toml:"ffmpeg" yaml:"ffmpeg"`
	FFprobeBinary string `toml:"ffprobe" yaml:"ffprobe"`

	Encoder Encoder `toml:"encoder" yaml:"encoder"`

	// Behavior flags.
	DryRun     bool `toml:"dry_run" yaml:"dry_run"`
	StrictMode bool `toml:"strict" yaml:"strict"`         // Disable ffmpeg retry fallbacks.
	KeepGoing  bool `toml:"keep_going" yaml:"keep_going"` // Probe failures skip the file instead of aborting.
	Lock       bool `toml:"lock" yaml:"lock"`             // Default: true.

	// Conversion history ledger; empty disables it.
	HistoryPath string `toml:"history_path" yaml:"history_path"`

	// Display and logging.
	Verbose       bool      `toml:"verbose" yaml:"verbose"`
	ColorMode     ColorMode `toml:"color" yaml:"color"`
	LogFile       string    `toml:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int       `toml:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int       `toml:"log_max_backups" yaml:"log_max_backups"`
}

const (
	defaultLimit            = 10
	defaultSize             = "0"
	defaultHistoryPath      = "~/.local/share/hevcsweep/history.db"
	defaultLogMaxSizeMB     = 50
	defaultLogMaxBackups    = 3
	defaultEncoderCodec     = "hevc_nvenc"
	defaultEncoderProfile   = "main10"
	defaultRateControl      = "constqp"
	defaultQuality          = 20
	defaultLookahead        = 32
	defaultKeyframeInterval = 600
)

// DefaultConfig returns a Config with the stock batch behavior: ten files
// per run, no size limit, NVENC HEVC Main10.
func DefaultConfig() Config {
	return Config{
		Root:          ".",
		Extensions:    []string{".mp4", ".mkv", ".avi"},
		Limit:         defaultLimit,
		Size:          defaultSize,
		FFmpegBinary:  "ffmpeg",
		FFprobeBinary: "ffprobe",
		Encoder: Encoder{
			Codec:            defaultEncoderCodec,
			Profile:          defaultEncoderProfile,
			RateControl:      defaultRateControl,
			Quality:          defaultQuality,
			Lookahead:        defaultLookahead,
			KeyframeInterval: defaultKeyframeInterval,
		},
		Lock:          true,
		HistoryPath:   defaultHistoryPath,
		ColorMode:     ColorAuto,
		LogMaxSizeMB:  defaultLogMaxSizeMB,
		LogMaxBackups: defaultLogMaxBackups,
	}
}

// Validate checks enum and numeric fields, normalizes extensions, and
// derives SizeLimitBytes from Size.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	sizeBytes, err := ParseSize(c.Size)
	if err != nil {
		return fmt.Errorf("size limit: %w", err)
	}
	c.SizeLimitBytes = sizeBytes

	if strings.TrimSpace(c.FFmpegBinary) == "" {
		return errors.New("ffmpeg binary must not be empty")
	}
	if strings.TrimSpace(c.FFprobeBinary) == "" {
		return errors.New("ffprobe binary must not be empty")
	}
	if err := c.Encoder.validate(); err != nil {
		return err
	}

	exts, err := normalizeExtensions(c.Extensions)
	if err != nil {
		return err
	}
	c.Extensions = exts

	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 {
		return errors.New("log rotation settings must not be negative")
	}
	if strings.TrimSpace(c.Root) == "" {
		c.Root = "."
	}
	return nil
}

func (e *Encoder) validate() error {
	if strings.TrimSpace(e.Codec) == "" {
		return errors.New("encoder.codec must be set")
	}
	if strings.TrimSpace(e.Profile) == "" {
		return errors.New("encoder.profile must be set")
	}
	if strings.TrimSpace(e.RateControl) == "" {
		return errors.New("encoder.rate_control must be set")
	}
	if e.Quality < 0 || e.Quality > 51 {
		return fmt.Errorf("encoder.quality must be between 0 and 51 (got %d)", e.Quality)
	}
	if e.Lookahead < 0 {
		return fmt.Errorf("encoder.lookahead must not be negative (got %d)", e.Lookahead)
	}
	if e.KeyframeInterval <= 0 {
		return fmt.Errorf("encoder.keyframe_interval must be positive (got %d)", e.KeyframeInterval)
	}
	return nil
}

// normalizeExtensions lowercases entries and adds a missing leading dot.
// Accepted forms: "mkv", ".mkv", ".MKV".
func normalizeExtensions(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, ext := range raw {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one candidate extension is required")
	}
	return out, nil
}

// CountLimitEnabled reports whether the per-run file count limit applies.
func (c *Config) CountLimitEnabled() bool { return c.Limit > 0 }

// SizeLimitEnabled reports whether the cumulative output size limit applies.
func (c *Config) SizeLimitEnabled() bool { return c.SizeLimitBytes > 0 }

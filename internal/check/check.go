// Package check provides system diagnostics (the check subcommand) and the
// pre-batch dependency validation (CheckDeps) for ffmpeg, ffprobe, the
// configured HEVC encoder, the AAC encoder, and scan root access.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/backmassage/hevcsweep/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound    = errors.New("ffmpeg not found")
	ErrFfprobeNotFound   = errors.New("ffprobe not found")
	ErrEncoderUnusable   = errors.New("video encoder test encode failed")
	ErrRootNotAccessible = errors.New("scan root is not readable and writable")
)

// Logger is the minimal logging interface needed by Run.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

// Run prints availability of ffmpeg, ffprobe, HEVC encoders, the configured
// encoder, AAC, and access to root. It is informational and reports
// whether every check passed.
func Run(ctx context.Context, cfg *config.Config, root string, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkBinary(ctx, cfg.FFmpegBinary, "ffmpeg", log)
	ok = checkBinary(ctx, cfg.FFprobeBinary, "ffprobe", log) && ok
	if !ok {
		return false
	}

	listHEVCEncoders(ctx, cfg.FFmpegBinary, log)

	log.Info("Testing %s (%s)...", cfg.Encoder.Codec, cfg.Encoder.Profile)
	if runSilent(ctx, cfg.FFmpegBinary, encoderTestArgs(cfg.Encoder)...) {
		log.Success("%s works", cfg.Encoder.Codec)
	} else {
		log.Error("%s test encode failed (no NVIDIA GPU or driver?)", cfg.Encoder.Codec)
		ok = false
	}

	log.Info("Testing AAC encoder...")
	if runSilent(ctx, cfg.FFmpegBinary, aacTestArgs()...) {
		log.Success("AAC encoder works")
	} else {
		log.Error("AAC encoder test failed")
		ok = false
	}

	if err := checkRoot(root); err != nil {
		log.Error("%v", err)
		ok = false
	} else {
		log.Success("Scan root %s is readable and writable", root)
	}
	return ok
}

// CheckDeps is the pre-batch validation: both tools must resolve, the
// configured encoder must pass a short test encode, and root must be
// writable. Dry runs skip the encode test.
func CheckDeps(ctx context.Context, cfg *config.Config, root string) error {
	if _, err := exec.LookPath(cfg.FFmpegBinary); err != nil {
		return fmt.Errorf("%w: %s", ErrFfmpegNotFound, cfg.FFmpegBinary)
	}
	if _, err := exec.LookPath(cfg.FFprobeBinary); err != nil {
		return fmt.Errorf("%w: %s", ErrFfprobeNotFound, cfg.FFprobeBinary)
	}
	if err := checkRoot(root); err != nil {
		return err
	}
	if cfg.DryRun {
		return nil
	}
	if !runSilent(ctx, cfg.FFmpegBinary, encoderTestArgs(cfg.Encoder)...) {
		return fmt.Errorf("%w: %s", ErrEncoderUnusable, cfg.Encoder.Codec)
	}
	return nil
}

// --- internal helpers ---

// checkBinary verifies bin resolves and logs the first line of -version.
func checkBinary(ctx context.Context, bin, label string, log Logger) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("%s not found (%s)", label, bin)
		return false
	}
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", label, err)
		return true
	}
	log.Success("%s: %s", label, firstLine(string(out)))
	return true
}

// listHEVCEncoders logs every HEVC-related encoder ffmpeg reports.
func listHEVCEncoders(ctx context.Context, bin string, log Logger) {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	enc := hevcEncoders(string(out))
	if len(enc) == 0 {
		log.Warn("No HEVC encoders listed")
		return
	}
	log.Info("HEVC encoders:")
	for _, line := range enc {
		log.Info("  %s", line)
	}
}

// hevcEncoders filters `ffmpeg -encoders` output down to HEVC lines.
func hevcEncoders(listing string) []string {
	var out []string
	for _, line := range strings.Split(listing, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "hevc") || strings.Contains(lower, "265") {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func checkRoot(root string) error {
	if err := unix.Access(root, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootNotAccessible, root, err)
	}
	return nil
}

// encoderTestArgs returns a minimal test encode with the configured video
// encoder. Main10 needs a 10-bit input format.
func encoderTestArgs(enc config.Encoder) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
	}
	if enc.Profile == "main10" {
		args = append(args, "-pix_fmt", "p010le")
	}
	return append(args,
		"-c:v", enc.Codec, "-profile:v", enc.Profile,
		"-f", "null", "-",
	)
}

func aacTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}

// runSilent runs a command and reports whether it exited with status 0.
func runSilent(ctx context.Context, name string, args ...string) bool {
	return exec.CommandContext(ctx, name, args...).Run() == nil
}

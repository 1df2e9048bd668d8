package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/backmassage/hevcsweep/internal/config"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) add(level, format string, args ...any) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordLogger) Info(f string, a ...any)    { r.add("INFO", f, a...) }
func (r *recordLogger) Success(f string, a ...any) { r.add("SUCCESS", f, a...) }
func (r *recordLogger) Warn(f string, a ...any)    { r.add("WARN", f, a...) }
func (r *recordLogger) Error(f string, a ...any)   { r.add("ERROR", f, a...) }

func (r *recordLogger) has(substr string) bool {
	return slices.ContainsFunc(r.lines, func(l string) bool { return strings.Contains(l, substr) })
}

// stubTool writes an executable shell script that prints stdout and exits
// with code.
func stubTool(t *testing.T, dir, name, stdout string, code int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' '%s'\nexit %d\n", stdout, code)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, ffmpegCode int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.FFmpegBinary = stubTool(t, dir, "ffmpeg", "ffmpeg version 7.1 Copyright", ffmpegCode)
	cfg.FFprobeBinary = stubTool(t, dir, "ffprobe", "ffprobe version 7.1", 0)
	return &cfg
}

func TestCheckDeps(t *testing.T) {
	root := t.TempDir()

	t.Run("ok", func(t *testing.T) {
		if err := CheckDeps(context.Background(), testConfig(t, 0), root); err != nil {
			t.Fatalf("CheckDeps() = %v", err)
		}
	})

	t.Run("missing ffmpeg", func(t *testing.T) {
		cfg := testConfig(t, 0)
		cfg.FFmpegBinary = filepath.Join(t.TempDir(), "nope")
		if err := CheckDeps(context.Background(), cfg, root); !errors.Is(err, ErrFfmpegNotFound) {
			t.Fatalf("CheckDeps() = %v, want ErrFfmpegNotFound", err)
		}
	})

	t.Run("missing ffprobe", func(t *testing.T) {
		cfg := testConfig(t, 0)
		cfg.FFprobeBinary = filepath.Join(t.TempDir(), "nope")
		if err := CheckDeps(context.Background(), cfg, root); !errors.Is(err, ErrFfprobeNotFound) {
			t.Fatalf("CheckDeps() = %v, want ErrFfprobeNotFound", err)
		}
	})

	t.Run("encoder unusable", func(t *testing.T) {
		if err := CheckDeps(context.Background(), testConfig(t, 1), root); !errors.Is(err, ErrEncoderUnusable) {
			t.Fatalf("CheckDeps() = %v, want ErrEncoderUnusable", err)
		}
	})

	t.Run("dry run skips encode test", func(t *testing.T) {
		cfg := testConfig(t, 1)
		cfg.DryRun = true
		if err := CheckDeps(context.Background(), cfg, root); err != nil {
			t.Fatalf("CheckDeps() = %v", err)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		err := CheckDeps(context.Background(), testConfig(t, 0), filepath.Join(root, "missing"))
		if !errors.Is(err, ErrRootNotAccessible) {
			t.Fatalf("CheckDeps() = %v, want ErrRootNotAccessible", err)
		}
	})
}

func TestRun_AllPass(t *testing.T) {
	log := &recordLogger{}
	if !Run(context.Background(), testConfig(t, 0), t.TempDir(), log) {
		t.Fatalf("Run() = false:\n%s", strings.Join(log.lines, "\n"))
	}
	if !log.has("SUCCESS ffmpeg: ffmpeg version 7.1 Copyright") {
		t.Errorf("version line missing:\n%s", strings.Join(log.lines, "\n"))
	}
	if !log.has("SUCCESS hevc_nvenc works") || !log.has("SUCCESS AAC encoder works") {
		t.Errorf("encoder results missing:\n%s", strings.Join(log.lines, "\n"))
	}
}

func TestRun_EncoderFailure(t *testing.T) {
	log := &recordLogger{}
	if Run(context.Background(), testConfig(t, 1), t.TempDir(), log) {
		t.Fatal("Run() = true with a failing ffmpeg")
	}
	if !log.has("ERROR hevc_nvenc test encode failed") {
		t.Errorf("encoder failure not reported:\n%s", strings.Join(log.lines, "\n"))
	}
}

func TestRun_MissingTools(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegBinary = filepath.Join(t.TempDir(), "ffmpeg")
	cfg.FFprobeBinary = filepath.Join(t.TempDir(), "ffprobe")

	log := &recordLogger{}
	if Run(context.Background(), &cfg, t.TempDir(), log) {
		t.Fatal("Run() = true without tools")
	}
	if !log.has("ERROR ffmpeg not found") || !log.has("ERROR ffprobe not found") {
		t.Errorf("missing tools not reported:\n%s", strings.Join(log.lines, "\n"))
	}
}

func TestHEVCEncoders(t *testing.T) {
	listing := `Encoders:
 V....D libx264              libx264 H.264 / AVC
 V....D libx265              libx265 H.265 / HEVC (codec hevc)
 V....D hevc_nvenc           NVIDIA NVENC hevc encoder (codec hevc)
 A....D aac                  AAC (Advanced Audio Coding)`

	got := hevcEncoders(listing)
	if len(got) != 2 || !strings.HasPrefix(got[0], "V....D libx265") || !strings.Contains(got[1], "hevc_nvenc") {
		t.Errorf("hevcEncoders() = %q", got)
	}
}

func TestEncoderTestArgs(t *testing.T) {
	enc := config.DefaultConfig().Encoder
	args := strings.Join(encoderTestArgs(enc), " ")
	if !strings.Contains(args, "-pix_fmt p010le -c:v hevc_nvenc -profile:v main10") {
		t.Errorf("main10 args = %q", args)
	}

	enc.Profile = "main"
	if strings.Contains(strings.Join(encoderTestArgs(enc), " "), "p010le") {
		t.Error("8-bit profile should not force a 10-bit pixel format")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/runlock"
)

type cliEnv struct {
	root        string
	historyPath string
}

const (
	ffmpegStub = `#!/bin/sh
for last; do :; done
case "$last" in
*.mkv) printf 'encoded' > "$last" ;;
esac
exit 0
`
	ffprobeStub = `#!/bin/sh
printf 'h264,video\nmp3,audio\n'
`
	ffprobeFailStub = `#!/bin/sh
echo "Invalid data found when processing input" >&2
exit 1
`
)

// setupCLIEnv isolates HOME, the working directory, and the tool
// overrides, and points ffmpeg/ffprobe at shell stubs.
func setupCLIEnv(t *testing.T, probeScript string) *cliEnv {
	t.Helper()
	base := t.TempDir()
	bin := filepath.Join(base, "bin")
	root := filepath.Join(base, "videos")
	work := filepath.Join(base, "work")
	for _, dir := range []string{bin, root, work} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeScript(t, filepath.Join(bin, "ffmpeg"), ffmpegStub)
	writeScript(t, filepath.Join(bin, "ffprobe"), probeScript)

	env := &cliEnv{root: root, historyPath: filepath.Join(base, "history.db")}
	t.Setenv("HOME", base)
	t.Setenv(config.EnvFFmpeg, filepath.Join(bin, "ffmpeg"))
	t.Setenv(config.EnvFFprobe, filepath.Join(bin, "ffprobe"))
	t.Setenv(config.EnvHistory, env.historyPath)
	t.Setenv(config.EnvLogFile, "")
	t.Setenv("NO_COLOR", "1")
	testChdir(t, work)
	return env
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func (e *cliEnv) touch(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(e.root, name), []byte("source"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestBatch_ConvertsAndRecordsHistory(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)
	env.touch(t, "a.avi", "b.x264.mp4", "c.x265.mkv")

	out, errOut, code := runCLI(t, "-limit=5", env.root)
	if code != exitOK {
		t.Fatalf("exit %d\nstdout:\n%s\nstderr:\n%s", code, out, errOut)
	}
	requireContains(t, out, "Skipping c.x265.mkv as it's already in x265/HEVC format.")
	requireContains(t, out, "Output saved to: "+filepath.Join(env.root, "b.HEVC.mkv"))
	requireContains(t, out, "Conversion completed. Total files processed: 2.")

	got, err := os.ReadFile(filepath.Join(env.root, "a.mkv"))
	if err != nil || string(got) != "encoded" {
		t.Fatalf("a.mkv = %q, %v", got, err)
	}
	if lock, err := runlock.Acquire(env.root); err != nil {
		t.Errorf("lock still held after the run: %v", err)
	} else {
		lock.Release()
	}

	out, _, code = runCLI(t, "history")
	if code != exitOK {
		t.Fatalf("history exit %d", code)
	}
	requireContains(t, out, "b.x264.mp4")
	requireContains(t, out, "converted")
	requireContains(t, out, "skipped")
}

func TestBatch_SecondRunReusesOutputs(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)
	env.touch(t, "a.avi")

	if _, _, code := runCLI(t, env.root); code != exitOK {
		t.Fatalf("first run exit %d", code)
	}
	out, _, code := runCLI(t, "-limit", "1", env.root)
	if code != exitOK {
		t.Fatalf("second run exit %d", code)
	}
	requireContains(t, out, "Output already exists, keeping it")
}

func TestBatch_DryRun(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)
	env.touch(t, "a.avi", "b.avi")

	out, errOut, code := runCLI(t, "--dry-run", "-limit", "1", env.root)
	if code != exitOK {
		t.Fatalf("exit %d\n%s", code, errOut)
	}
	requireContains(t, out, "[DRY] Would run:")
	requireContains(t, out, "Reached the conversion limit of 1 files.")
	if _, err := os.Stat(filepath.Join(env.root, "a.mkv")); !os.IsNotExist(err) {
		t.Error("dry run wrote an output")
	}
}

func TestBatch_ProbeFailureExitsNonZero(t *testing.T) {
	env := setupCLIEnv(t, ffprobeFailStub)
	env.touch(t, "a.avi")

	_, errOut, code := runCLI(t, env.root)
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	requireContains(t, errOut, "Aborting batch")
	requireContains(t, errOut, "Invalid data found when processing input")
}

func TestBatch_InvalidSize(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)

	_, errOut, code := runCLI(t, "--size", "10X", env.root)
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	requireContains(t, errOut, "size limit")
}

func TestBatch_MissingRoot(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)

	_, errOut, code := runCLI(t, filepath.Join(env.root, "missing"))
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	requireContains(t, errOut, "scan root")
}

func TestBatch_LockedRoot(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)
	env.touch(t, "a.avi")

	lock, err := runlock.Acquire(env.root)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	_, errOut, code := runCLI(t, env.root)
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	requireContains(t, errOut, "already running")

	if _, _, code := runCLI(t, "--no-lock", "--no-history", env.root); code != exitOK {
		t.Fatalf("--no-lock run exit %d", code)
	}
}

func TestHistory_Disabled(t *testing.T) {
	setupCLIEnv(t, ffprobeStub)
	t.Setenv(config.EnvHistory, "")

	_, errOut, code := runCLI(t, "history")
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	requireContains(t, errOut, "history is disabled")
}

func TestHistory_Empty(t *testing.T) {
	setupCLIEnv(t, ffprobeStub)

	out, _, code := runCLI(t, "history")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	requireContains(t, out, "No history recorded yet")
}

func TestAnalyze(t *testing.T) {
	env := setupCLIEnv(t, ffprobeStub)
	env.touch(t, "a.avi", "b.hevc.mkv")

	out, errOut, code := runCLI(t, "analyze", env.root)
	if code != exitOK {
		t.Fatalf("exit %d\n%s", code, errOut)
	}
	requireContains(t, out, "audio: mp3 -> aac, subtitles: drop")
	requireContains(t, out, "skip (HEVC)")
	if _, err := os.Stat(filepath.Join(env.root, "a.mkv")); !os.IsNotExist(err) {
		t.Error("analyze wrote an output")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	setupCLIEnv(t, ffprobeStub)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, code := runCLI(t, "config", "init", "--path", target)
	if code != exitOK {
		t.Fatalf("config init exit %d", code)
	}
	requireContains(t, out, "Wrote sample configuration")

	_, errOut, code := runCLI(t, "config", "init", "--path", target)
	if code != exitFailure {
		t.Fatalf("second init exit %d, want failure", code)
	}
	requireContains(t, errOut, "already exists")

	out, errOut, code = runCLI(t, "config", "validate", "--config", target)
	if code != exitOK {
		t.Fatalf("config validate exit %d\n%s", code, errOut)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "hevc_nvenc main10")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidate_ReportsLoadedFile(t *testing.T) {
	setupCLIEnv(t, ffprobeStub)
	target := filepath.Join(t.TempDir(), "hevcsweep.yaml")
	if err := os.WriteFile(target, []byte("limit: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := runCLI(t, "config", "validate", "--config", target)
	if code != exitOK {
		t.Fatalf("config validate exit %d\n%s", code, errOut)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "3 files")
	if strings.Contains(out, "defaults were used") {
		t.Errorf("existing file reported as missing:\n%s", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, _, code := runCLI(t, "--version")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	requireContains(t, out, version)
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/hevcsweep/internal/config"
)

func newTestLogger(t *testing.T, mutate func(*config.Config)) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	if mutate != nil {
		mutate(&cfg)
	}
	var out, errOut bytes.Buffer
	l, err := NewWithWriters(&cfg, &out, &errOut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l, &out, &errOut
}

func TestLogger_LevelsAndStreams(t *testing.T) {
	l, out, errOut := newTestLogger(t, nil)

	l.Info("Processing: %s", "a.mkv")
	l.Success("done")
	l.Warn("careful")
	l.Error("broken %d", 7)

	stdout := out.String()
	for _, want := range []string{"[INFO] Processing: a.mkv", "[SUCCESS] done", "[WARN] careful"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "broken") {
		t.Error("ERROR lines should not go to stdout")
	}
	if !strings.Contains(errOut.String(), "[ERROR] broken 7") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestLogger_DebugOnlyWhenVerbose(t *testing.T) {
	l, out, _ := newTestLogger(t, nil)
	l.Debug("hidden")
	if out.Len() != 0 {
		t.Errorf("Debug should be silent without verbose, got %q", out.String())
	}

	lv, outv, _ := newTestLogger(t, func(c *config.Config) { c.Verbose = true })
	if !lv.Verbose() {
		t.Fatal("Verbose() = false, want true")
	}
	lv.Debug("shown %s", "now")
	if !strings.Contains(outv.String(), "[DEBUG] shown now") {
		t.Errorf("verbose Debug output = %q", outv.String())
	}
}

func TestLogger_ColorAlways(t *testing.T) {
	l, out, _ := newTestLogger(t, func(c *config.Config) { c.ColorMode = config.ColorAlways })
	l.Info("colored")
	if !strings.Contains(out.String(), "\033[") {
		t.Errorf("expected ANSI escape in %q", out.String())
	}
	// Reset the package-level colors for other tests.
	newTestLogger(t, nil)
}

func TestLogger_FileRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hevcsweep.log")
	l, _, _ := newTestLogger(t, func(c *config.Config) { c.LogFile = path })

	l.SetRunID("run-123")
	l.Info("to file")
	l.Event("file converted", "input", "a.avi", "bytes", 42)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log records, want 2:\n%s", len(lines), b)
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if first["msg"] != "to file" || first["tag"] != "INFO" || first["run_id"] != "run-123" {
		t.Errorf("first record = %v", first)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if second["input"] != "a.avi" || second["bytes"] != float64(42) {
		t.Errorf("event record = %v", second)
	}
}

func TestLogger_EventWithoutFileIsNoop(t *testing.T) {
	l, out, errOut := newTestLogger(t, nil)
	l.Event("ignored", "k", "v")
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Error("Event should never write to the console")
	}
}

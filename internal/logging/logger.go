// Package logging provides the leveled console logger used throughout a
// batch run, with an optional rotating JSON log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/backmassage/hevcsweep/internal/config"
	"github.com/backmassage/hevcsweep/internal/term"
)

// Logger writes timestamped, optionally colored lines to the console and
// mirrors every line as a JSON record into the log file when one is set.
type Logger struct {
	mu      sync.Mutex
	verbose bool
	out     io.Writer
	errOut  io.Writer
	file    *lumberjack.Logger
	records *slog.Logger
}

// New configures terminal colors from cfg and opens the rotating log file
// when cfg.LogFile is set. Call Close when done.
func New(cfg *config.Config) (*Logger, error) {
	return NewWithWriters(cfg, os.Stdout, os.Stderr)
}

// NewWithWriters is New with explicit console writers; ERROR lines go to
// errOut, everything else to out.
func NewWithWriters(cfg *config.Config, out, errOut io.Writer) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	l := &Logger{
		verbose: cfg.Verbose,
		out:     out,
		errOut:  errOut,
	}
	if cfg.LogFile == "" {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	l.file = &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	l.records = slog.New(slog.NewJSONHandler(l.file, &slog.HandlerOptions{Level: level}))
	return l, nil
}

// Verbose reports whether debug output is enabled.
func (l *Logger) Verbose() bool { return l.verbose }

// SetRunID tags every subsequent file record with the batch run ID.
func (l *Logger) SetRunID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records != nil {
		l.records = l.records.With(slog.String("run_id", id))
	}
}

// Event writes a structured record to the log file only. It is a no-op
// without a log file.
func (l *Logger) Event(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records != nil {
		l.records.Info(msg, args...)
	}
}

// Close flushes and closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.records = nil
	return err
}

func (l *Logger) line(level, color string, slogLevel slog.Level, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if level == "ERROR" {
		out = l.errOut
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, ts+" ["+level+"] "+text+"\n")
	}
	if l.records != nil {
		l.records.Log(context.Background(), slogLevel, text, slog.String("tag", level))
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", term.Blue, slog.LevelInfo, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...any) {
	l.line("SUCCESS", term.Green, slog.LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", term.Yellow, slog.LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", term.Red, slog.LevelError, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.line("DEBUG", term.Cyan, slog.LevelDebug, fmt.Sprintf(format, args...))
}

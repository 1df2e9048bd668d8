// Package history keeps a SQLite ledger of every file outcome across
// batch runs.
package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Entry is one recorded file outcome.
type Entry struct {
	ID            string
	RunID         string
	Input         string
	Output        string
	Kind          string
	Bytes         int64
	Reused        bool
	DryRun        bool
	VideoCodec    string
	AudioCodec    string
	SubtitleCodec string
	Reason        string
	CreatedAt     time.Time
}

// Ledger persists entries in SQLite.
type Ledger struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	entropy io.Reader
}

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
    id             TEXT PRIMARY KEY,
    run_id         TEXT NOT NULL,
    input_path     TEXT NOT NULL,
    output_path    TEXT,
    kind           TEXT NOT NULL,
    bytes          INTEGER NOT NULL DEFAULT 0,
    reused         INTEGER NOT NULL DEFAULT 0,
    dry_run        INTEGER NOT NULL DEFAULT 0,
    video_codec    TEXT,
    audio_codec    TEXT,
    subtitle_codec TEXT,
    reason         TEXT,
    created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_run ON conversions(run_id);
CREATE INDEX IF NOT EXISTS idx_conversions_input ON conversions(input_path);
`

// Open creates or opens the ledger at path, creating parent directories.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Ledger{
		db:      db,
		path:    path,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) newID(t time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), l.entropy).String()
}

// Record inserts e, assigning an ID and timestamp when they are unset.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.ID == "" {
		e.ID = l.newID(e.CreatedAt)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO conversions (
            id, run_id, input_path, output_path, kind, bytes, reused, dry_run,
            video_codec, audio_codec, subtitle_codec, reason, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.RunID,
		e.Input,
		nullableString(e.Output),
		e.Kind,
		e.Bytes,
		boolToInt(e.Reused),
		boolToInt(e.DryRun),
		nullableString(e.VideoCodec),
		nullableString(e.AudioCodec),
		nullableString(e.SubtitleCodec),
		nullableString(e.Reason),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of zero or
// less returns everything.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, input_path, output_path, kind, bytes, reused, dry_run,
        video_codec, audio_codec, subtitle_codec, reason, created_at
        FROM conversions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                 Entry
			output, video, audio, sub, reason sql.NullString
			reused, dryRun                    int
			created                           string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Input, &output, &e.Kind, &e.Bytes,
			&reused, &dryRun, &video, &audio, &sub, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Output = output.String
		e.VideoCodec = video.String
		e.AudioCodec = audio.String
		e.SubtitleCodec = sub.String
		e.Reason = reason.String
		e.Reused = reused != 0
		e.DryRun = dryRun != 0
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// ConvertedBefore reports whether an earlier run finished encoding input.
// Dry runs and reused outputs do not count.
func (l *Ledger) ConvertedBefore(ctx context.Context, input string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversions WHERE input_path = ? AND kind IN ('converted', 'limit-reached') AND dry_run = 0 AND reused = 0`,
		input,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return n > 0, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

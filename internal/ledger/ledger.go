// Package ledger records every committed change in a SQLite database
// under the workspace state directory.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jensroland/multiedit/internal/lineset"
)

// tsLayout sorts lexically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{`
CREATE TABLE IF NOT EXISTS commits (
	id            TEXT PRIMARY KEY,
	session       TEXT NOT NULL,
	file          TEXT NOT NULL,
	operation     TEXT NOT NULL,
	ts            TEXT NOT NULL,
	applied       INTEGER NOT NULL DEFAULT 0,
	replacements  INTEGER NOT NULL DEFAULT 0,
	added         INTEGER NOT NULL DEFAULT 0,
	removed       INTEGER NOT NULL DEFAULT 0,
	changed_lines TEXT,
	backup_path   TEXT,
	description   TEXT,
	author        TEXT,
	checkpoint    TEXT
)`,
	"CREATE INDEX IF NOT EXISTS idx_file ON commits(file)",
	"CREATE INDEX IF NOT EXISTS idx_ts ON commits(ts)",
}

// Entry is one committed change to one file.
type Entry struct {
	ID           string          `json:"id"`
	Session      string          `json:"session"`
	File         string          `json:"file"` // workspace-relative
	Operation    string          `json:"operation"`
	Ts           time.Time       `json:"ts"`
	Applied      int             `json:"applied"`
	Replacements int             `json:"replacements,omitempty"`
	Added        int             `json:"added"`
	Removed      int             `json:"removed"`
	ChangedLines lineset.LineSet `json:"changed_lines"`
	BackupPath   string          `json:"backup_path,omitempty"`
	Description  string          `json:"description,omitempty"`
	Author       string          `json:"author,omitempty"`
	Checkpoint   string          `json:"checkpoint,omitempty"`
}

// Stats summarises the ledger.
type Stats struct {
	Commits     int            `json:"commits"`
	Files       int            `json:"files"`
	Added       int            `json:"added"`
	Removed     int            `json:"removed"`
	ByOperation map[string]int `json:"by_operation"`
	Last        time.Time      `json:"last"`
}

type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts e, filling in ID and Ts when unset, and returns the ID.
func (l *Ledger) Record(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO commits
		(id, session, file, operation, ts, applied, replacements, added, removed,
		 changed_lines, backup_path, description, author, checkpoint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Session, e.File, e.Operation, e.Ts.UTC().Format(tsLayout),
		e.Applied, e.Replacements, e.Added, e.Removed,
		e.ChangedLines.String(), e.BackupPath, e.Description, e.Author, e.Checkpoint,
	)
	if err != nil {
		return "", fmt.Errorf("record commit: %w", err)
	}
	return e.ID, nil
}

// SetCheckpoint attaches a git commit to a recorded entry.
func (l *Ledger) SetCheckpoint(ctx context.Context, id, sha string) error {
	res, err := l.db.ExecContext(ctx, `UPDATE commits SET checkpoint = ? WHERE id = ?`, sha, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("commit %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ForFile returns entries for file, newest first. An empty file returns
// entries for every file; limit <= 0 means no limit.
func (l *Ledger) ForFile(ctx context.Context, file string, limit int) ([]Entry, error) {
	query := `SELECT id, session, file, operation, ts, applied, replacements, added, removed,
		changed_lines, backup_path, description, author, checkpoint FROM commits`
	var args []any
	if file != "" {
		query += ` WHERE file = ?`
		args = append(args, file)
	}
	query += ` ORDER BY ts DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var ts string
	var changed, backup, desc, author, checkpoint sql.NullString
	err := rows.Scan(&e.ID, &e.Session, &e.File, &e.Operation, &ts,
		&e.Applied, &e.Replacements, &e.Added, &e.Removed,
		&changed, &backup, &desc, &author, &checkpoint)
	if err != nil {
		return e, err
	}
	if e.Ts, err = time.Parse(tsLayout, ts); err != nil {
		return e, fmt.Errorf("commit %s: bad timestamp %q: %w", e.ID, ts, err)
	}
	if e.ChangedLines, err = lineset.FromString(changed.String); err != nil {
		return e, fmt.Errorf("commit %s: %w", e.ID, err)
	}
	e.BackupPath, e.Description = backup.String, desc.String
	e.Author, e.Checkpoint = author.String, checkpoint.String
	return e, nil
}

// Stats aggregates the whole ledger.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	s := Stats{ByOperation: make(map[string]int)}
	var last sql.NullString
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT file), COALESCE(SUM(added), 0), COALESCE(SUM(removed), 0), MAX(ts)
		FROM commits`).Scan(&s.Commits, &s.Files, &s.Added, &s.Removed, &last)
	if err != nil {
		return s, err
	}
	if last.Valid {
		s.Last, _ = time.Parse(tsLayout, last.String)
	}

	rows, err := l.db.QueryContext(ctx, `SELECT operation, COUNT(*) FROM commits GROUP BY operation`)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var op string
		var n int
		if err := rows.Scan(&op, &n); err != nil {
			return s, err
		}
		s.ByOperation[op] = n
	}
	return s, rows.Err()
}

// Package engine applies validated changes to workspace files. Every
// mutating operation follows the same pipeline: load a snapshot, build
// the proposed content, preview it through the confirmation gate, back
// the original up and commit the new bytes atomically.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jensroland/multiedit/internal/backup"
	"github.com/jensroland/multiedit/internal/commit"
	"github.com/jensroland/multiedit/internal/config"
	"github.com/jensroland/multiedit/internal/debug"
	"github.com/jensroland/multiedit/internal/confirm"
	"github.com/jensroland/multiedit/internal/diff"
	"github.com/jensroland/multiedit/internal/edit"
	"github.com/jensroland/multiedit/internal/git"
	"github.com/jensroland/multiedit/internal/ledger"
	"github.com/jensroland/multiedit/internal/linemap"
	"github.com/jensroland/multiedit/internal/project"
	"github.com/jensroland/multiedit/internal/textbuf"
)

var (
	// ErrCommit wraps failures while backing up or writing approved content.
	ErrCommit = errors.New("commit failed")
	// ErrNotFound is returned by SearchReplace when the search text is absent.
	ErrNotFound = errors.New("search text not found")
)

// State is the last pipeline stage a call reached.
type State int

const (
	StateLoaded State = iota
	StateValidated
	StateRejectedInvalid
	StatePreviewed
	StateRejectedByUser
	StateApproved
	StateBackedUp
	StateCommitted
	StateUnchanged
)

var stateNames = [...]string{
	StateLoaded:          "loaded",
	StateValidated:       "validated",
	StateRejectedInvalid: "rejected_invalid",
	StatePreviewed:       "previewed",
	StateRejectedByUser:  "rejected_by_user",
	StateApproved:        "approved",
	StateBackedUp:        "backed_up",
	StateCommitted:       "committed",
	StateUnchanged:       "unchanged",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText makes states readable in JSON output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result describes the outcome of one mutating call.
type Result struct {
	Path         string              `json:"path"`
	State        State               `json:"state"`
	Applied      int                 `json:"applied"`
	Replacements int                 `json:"replacements,omitempty"`
	BackupPath   string              `json:"backup_path,omitempty"`
	Diff         string              `json:"diff,omitempty"`
	Placements   []linemap.Placement `json:"placements,omitempty"`
	Added        int                 `json:"added"`
	Removed      int                 `json:"removed"`
	CommitID     string              `json:"commit_id,omitempty"`
	Checkpoint   string              `json:"checkpoint,omitempty"`
}

// Committed reports whether the file on disk now holds the new content.
func (r Result) Committed() bool { return r.State == StateCommitted }

// Options configures an Engine.
type Options struct {
	Paths  project.Paths
	Config config.Config
	// Gate confirms each change. Nil means a y/N prompt on stdin/stdout.
	Gate   confirm.Gate
	Logger *slog.Logger
	// Ledger, when set, records every committed change.
	Ledger *ledger.Ledger
	// Backups overrides the session's backup manager.
	Backups *backup.Manager
}

// CallOptions adjust a single operation.
type CallOptions struct {
	// AutoApprove bypasses the gate for this call.
	AutoApprove bool
	// NoPreview applies without consulting the gate at all.
	NoPreview bool
	// Checkpoint, when non-empty, creates a git checkpoint commit with
	// this message after a successful write.
	Checkpoint string
	// Description is stored in the ledger.
	Description string
}

type Engine struct {
	paths   project.Paths
	cfg     config.Config
	gate    confirm.Gate
	logger  *slog.Logger
	ledger  *ledger.Ledger
	backups *backup.Manager
	session string
	now     func() time.Time
	write   func(path string, data []byte) error
}

func New(opts Options) *Engine {
	session := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = debug.Discard()
	}
	logger = logger.With("session", session)

	paths := opts.Paths.WithBackupDir(opts.Config.BackupDir)
	gate := opts.Gate
	if gate == nil {
		gate = &confirm.Prompt{In: os.Stdin, Out: os.Stdout, Style: opts.Config.PreviewStyle}
	}
	backups := opts.Backups
	if backups == nil {
		backups = backup.New(paths.BackupDir, logger)
	}
	return &Engine{
		paths:   paths,
		cfg:     opts.Config,
		gate:    gate,
		logger:  logger,
		ledger:  opts.Ledger,
		backups: backups,
		session: session,
		now:     time.Now,
		write:   commit.Write,
	}
}

// Session identifies this engine in logs and the ledger.
func (e *Engine) Session() string { return e.session }

// Paths returns the workspace locations the engine works in.
func (e *Engine) Paths() project.Paths { return e.paths }

// change is a fully computed proposal waiting for confirmation.
type change struct {
	op          string
	abs, rel    string
	snap        *textbuf.Snapshot // nil when creating a new file
	newLines    []string
	newData     []byte
	applied     int
	replaced    int
	placements  []linemap.Placement
	description string
}

// files returns both sides of the change for diffing.
func (c *change) files() (old, new diff.File) {
	lines, trailing, ending := textbuf.Split(string(c.newData))
	return diff.SnapshotFile(c.snap), diff.File{Lines: lines, TrailingNewline: trailing, LineEnding: ending}
}

func (e *Engine) transition(op, rel string, s State, attrs ...any) {
	e.logger.Info("state", append([]any{"op", op, "file", rel, "state", s.String()}, attrs...)...)
}

// load resolves path to an existing file inside the workspace and reads it.
func (e *Engine) load(op, path string) (string, *textbuf.Snapshot, error) {
	abs, err := e.paths.ResolveExisting(path)
	if err != nil {
		return "", nil, err
	}
	snap, err := textbuf.Load(abs)
	if err != nil {
		return "", nil, err
	}
	e.transition(op, e.paths.Rel(abs), StateLoaded, "lines", snap.Len())
	return abs, snap, nil
}

func (e *Engine) rejectInvalid(op, abs string, err error) (Result, error) {
	rel := e.paths.Rel(abs)
	attrs := []any{"error", err.Error()}
	var report *edit.ValidationReport
	if errors.As(err, &report) && report.Has(edit.OverlapDetected) {
		attrs = append(attrs, "overlaps", report.Overlaps())
	}
	e.transition(op, rel, StateRejectedInvalid, attrs...)
	return Result{Path: rel, State: StateRejectedInvalid}, err
}

// propose runs the shared tail of every mutating operation.
func (e *Engine) propose(ctx context.Context, c *change, opts CallOptions) (Result, error) {
	res := Result{
		Path:         c.rel,
		Applied:      c.applied,
		Replacements: c.replaced,
		Placements:   c.placements,
	}
	e.transition(c.op, c.rel, StateValidated)

	if c.snap != nil && bytes.Equal(c.snap.Bytes(), c.newData) {
		res.State = StateUnchanged
		e.transition(c.op, c.rel, res.State)
		return res, nil
	}

	oldFile, newFile := c.files()
	res.Diff = diff.UnifiedFiles(c.rel, oldFile, newFile, e.cfg.ContextLines)
	res.Added, res.Removed = diff.FileStats(oldFile, newFile)
	res.State = StatePreviewed
	e.transition(c.op, c.rel, res.State, "added", res.Added, "removed", res.Removed)

	if !(opts.AutoApprove || opts.NoPreview || e.cfg.AutoApprove) {
		decision, err := e.gate.Confirm(ctx, confirm.Preview{
			Path:    c.rel,
			Diff:    res.Diff,
			Summary: summary(c, res, diff.EndingChange(oldFile, newFile)),
			Notes:   notes(c, opts),
			Old:     oldFile.Lines,
			New:     c.newLines,
		})
		if err != nil {
			e.logger.Warn("confirmation failed", "op", c.op, "file", c.rel, "error", err)
			return res, fmt.Errorf("confirming %s: %w", c.rel, err)
		}
		if decision != confirm.Approved {
			res.State = StateRejectedByUser
			e.transition(c.op, c.rel, res.State)
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.State = StateApproved
	e.transition(c.op, c.rel, res.State)

	if c.snap != nil {
		bp, err := e.backups.Ensure(c.abs, c.snap)
		if err != nil {
			e.logger.Error("backup failed", "op", c.op, "file", c.rel, "error", err)
			return res, fmt.Errorf("%w: %s: %w", ErrCommit, c.rel, err)
		}
		res.BackupPath = bp
		res.State = StateBackedUp
		e.transition(c.op, c.rel, res.State, "backup", bp)
	} else if err := os.MkdirAll(filepath.Dir(c.abs), 0o755); err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrCommit, c.rel, err)
	}

	if err := e.write(c.abs, c.newData); err != nil {
		e.logger.Error("write failed", "op", c.op, "file", c.rel, "error", err)
		return res, fmt.Errorf("%w: %s: %w", ErrCommit, c.rel, err)
	}
	res.State = StateCommitted
	e.transition(c.op, c.rel, res.State, "bytes", len(c.newData))

	e.record(ctx, c, &res, opts)
	return res, nil
}

func summary(c *change, res Result, endings string) string {
	var what string
	switch {
	case c.snap == nil:
		what = "new file"
	case c.replaced > 0:
		what = fmt.Sprintf("%d replacement(s)", c.replaced)
	default:
		what = fmt.Sprintf("%d edit(s)", c.applied)
	}
	out := fmt.Sprintf("%s, +%d -%d", what, res.Added, res.Removed)
	if endings != "" {
		out += ", line endings " + endings
	}
	return out
}

func notes(c *change, opts CallOptions) string {
	if opts.Description != "" {
		return opts.Description
	}
	return c.description
}

// Git lookups used by record; tests count calls through them.
var (
	gitIsRepo = git.IsRepo
	gitAuthor = git.Author
)

// record stores the commit in the ledger and creates a git checkpoint when
// asked to. Neither can undo the write, so failures are only logged.
func (e *Engine) record(ctx context.Context, c *change, res *Result, opts CallOptions) {
	wantCheckpoint := opts.Checkpoint != "" || e.cfg.GitCheckpoint
	if e.ledger == nil && !wantCheckpoint {
		return
	}
	inRepo := gitIsRepo(e.paths.Root)
	author := ""
	if inRepo && e.ledger != nil {
		author = gitAuthor(e.paths.Root)
	}

	if e.ledger != nil {
		desc := notes(c, opts)
		id, err := e.ledger.Record(ctx, ledger.Entry{
			Session:      e.session,
			File:         c.rel,
			Operation:    c.op,
			Ts:           e.now(),
			Applied:      c.applied,
			Replacements: c.replaced,
			Added:        res.Added,
			Removed:      res.Removed,
			ChangedLines: diff.FileChangedLines(c.files()),
			BackupPath:   res.BackupPath,
			Description:  desc,
			Author:       author,
		})
		if err != nil {
			e.logger.Warn("ledger write failed", "file", c.rel, "error", err)
		} else {
			res.CommitID = id
		}
	}

	if !wantCheckpoint {
		return
	}
	if !inRepo {
		e.logger.Info("checkpoint skipped, not a git repository", "file", c.rel)
		return
	}
	subject := git.CheckpointMessage(opts.Checkpoint, c.op, c.rel, e.now())
	sha, err := git.Checkpoint(e.paths.Root, c.rel, subject)
	if err != nil {
		e.logger.Warn("checkpoint failed", "file", c.rel, "error", err)
		return
	}
	res.Checkpoint = sha
	e.logger.Info("checkpoint created", "file", c.rel, "sha", sha)
	if e.ledger != nil && res.CommitID != "" {
		if err := e.ledger.SetCheckpoint(ctx, res.CommitID, sha); err != nil {
			e.logger.Warn("ledger checkpoint update failed", "error", err)
		}
	}
}

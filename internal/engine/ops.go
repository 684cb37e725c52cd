package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jensroland/multiedit/internal/diff"
	"github.com/jensroland/multiedit/internal/edit"
	"github.com/jensroland/multiedit/internal/linemap"
	"github.com/jensroland/multiedit/internal/lineset"
	"github.com/jensroland/multiedit/internal/project"
	"github.com/jensroland/multiedit/internal/textbuf"
)

// Operation names as they appear in logs and the ledger.
const (
	OpApplyEdits    = "apply_edits"
	OpEditLines     = "edit_lines"
	OpSearchReplace = "search_replace"
	OpWriteFile     = "write_file"
	OpInsertLines   = "insert_lines"
	OpDeleteLines   = "delete_lines"
	OpEnsureLines   = "ensure_lines"
)

// ApplyEdits applies batch, whose line numbers all refer to the file as
// it is now, as one all-or-nothing change.
func (e *Engine) ApplyEdits(ctx context.Context, path string, batch edit.Batch, opts CallOptions) (Result, error) {
	return e.applyBatch(ctx, OpApplyEdits, path, batch, opts)
}

// EditLines replaces lines start..end (1-indexed, inclusive) with content.
func (e *Engine) EditLines(ctx context.Context, path string, start, end int, content, description string, opts CallOptions) (Result, error) {
	batch := edit.Batch{{StartLine: start, EndLine: end, NewContent: content, Description: description}}
	return e.applyBatch(ctx, OpEditLines, path, batch, opts)
}

// DeleteLines removes every line in lines. Each contiguous run becomes
// one deletion in a single batch.
func (e *Engine) DeleteLines(ctx context.Context, path string, lines lineset.LineSet, opts CallOptions) (Result, error) {
	var batch edit.Batch
	for _, r := range lines.Ranges() {
		batch = append(batch, edit.FileEdit{StartLine: r.Start, EndLine: r.End, Description: "delete " + lines.String()})
	}
	return e.applyBatch(ctx, OpDeleteLines, path, batch, opts)
}

func (e *Engine) applyBatch(ctx context.Context, op, path string, batch edit.Batch, opts CallOptions) (Result, error) {
	abs, snap, err := e.load(op, path)
	if err != nil {
		return Result{Path: path}, err
	}
	if err := edit.Validate(batch, snap.Len()); err != nil {
		return e.rejectInvalid(op, abs, err)
	}

	newLines := edit.Apply(snap.Lines(), batch)
	return e.propose(ctx, &change{
		op:          op,
		abs:         abs,
		rel:         e.paths.Rel(abs),
		snap:        snap,
		newLines:    newLines,
		newData:     joinFor(snap, newLines),
		applied:     len(batch),
		placements:  linemap.Place(batch),
		description: batchDescription(batch),
	}, opts)
}

// EditPreview is the diff of a single edit applied on its own.
type EditPreview struct {
	Index int    `json:"index"`
	Edit  string `json:"edit"`
	Diff  string `json:"diff"`
}

// PreviewEdits validates batch against path and returns one diff per
// edit, in submission order. Nothing is written and the gate is not
// consulted.
func (e *Engine) PreviewEdits(path string, batch edit.Batch) ([]EditPreview, error) {
	_, snap, err := e.load(OpApplyEdits, path)
	if err != nil {
		return nil, err
	}
	if err := edit.Validate(batch, snap.Len()); err != nil {
		return nil, err
	}
	out := make([]EditPreview, len(batch))
	for i, fe := range batch {
		out[i] = EditPreview{Index: i, Edit: fe.String(), Diff: diff.ForEdit(snap, fe, e.cfg.ContextLines)}
	}
	return out, nil
}

func batchDescription(batch edit.Batch) string {
	var parts []string
	for _, fe := range batch {
		if fe.Description != "" && !slices.Contains(parts, fe.Description) {
			parts = append(parts, fe.Description)
		}
	}
	return strings.Join(parts, "; ")
}

// joinFor renders lines with the snapshot's conventions. Content added
// to an empty file gets a trailing newline.
func joinFor(snap *textbuf.Snapshot, lines []string) []byte {
	if snap.Len() == 0 {
		return []byte(textbuf.Join(lines, true, snap.LineEnding()))
	}
	return snap.Join(lines)
}

// InsertLines inserts content after line `after`; 0 inserts at the top.
func (e *Engine) InsertLines(ctx context.Context, path string, after int, content string, opts CallOptions) (Result, error) {
	abs, snap, err := e.load(OpInsertLines, path)
	if err != nil {
		return Result{Path: path}, err
	}
	newLines, err := edit.Insert(snap.Lines(), after, content)
	if err != nil {
		return e.rejectInvalid(OpInsertLines, abs, err)
	}

	n := len(edit.SplitContent(content))
	return e.propose(ctx, &change{
		op:       OpInsertLines,
		abs:      abs,
		rel:      e.paths.Rel(abs),
		snap:     snap,
		newLines: newLines,
		newData:  joinFor(snap, newLines),
		applied:  1,
		placements: []linemap.Placement{{
			Start: after + 1,
			End:   after + n,
			Lines: lineset.FromRange(after+1, after+n),
			Delta: n,
		}},
	}, opts)
}

// SearchReplace replaces every occurrence of old with new.
func (e *Engine) SearchReplace(ctx context.Context, path, old, new string, opts CallOptions) (Result, error) {
	abs, snap, err := e.load(OpSearchReplace, path)
	if err != nil {
		return Result{Path: path}, err
	}
	text := snap.Text()
	count := 0
	if old != "" {
		count = strings.Count(text, old)
	}
	if count == 0 {
		rel := e.paths.Rel(abs)
		e.transition(OpSearchReplace, rel, StateRejectedInvalid, "error", ErrNotFound.Error())
		return Result{Path: rel, State: StateRejectedInvalid}, fmt.Errorf("%s: %w", rel, ErrNotFound)
	}

	proposed, err := textbuf.FromBytes(abs, []byte(strings.ReplaceAll(text, old, new)))
	if err != nil {
		return e.rejectInvalid(OpSearchReplace, abs, err)
	}
	return e.propose(ctx, &change{
		op:       OpSearchReplace,
		abs:      abs,
		rel:      e.paths.Rel(abs),
		snap:     snap,
		newLines: proposed.Lines(),
		newData:  proposed.Bytes(),
		replaced: count,
	}, opts)
}

// ReadFile returns the exact text of a workspace file.
func (e *Engine) ReadFile(path string) (string, error) {
	abs, err := e.paths.ResolveExisting(path)
	if err != nil {
		return "", err
	}
	snap, err := textbuf.Load(abs)
	if err != nil {
		return "", err
	}
	return snap.Text(), nil
}

// WriteFile replaces the whole content of path, creating it and any
// missing parent directories when needed. New files are not backed up.
func (e *Engine) WriteFile(ctx context.Context, path, content string, opts CallOptions) (Result, error) {
	abs, err := e.paths.Resolve(path)
	if err != nil {
		return Result{Path: path}, err
	}
	rel := e.paths.Rel(abs)

	proposed, err := textbuf.FromBytes(abs, []byte(content))
	if err != nil {
		return e.rejectInvalid(OpWriteFile, abs, err)
	}

	var snap *textbuf.Snapshot
	switch _, statErr := os.Stat(abs); {
	case statErr == nil:
		if abs, snap, err = e.load(OpWriteFile, path); err != nil {
			return Result{Path: rel}, err
		}
	case errors.Is(statErr, fs.ErrNotExist):
		e.transition(OpWriteFile, rel, StateLoaded, "new", true)
	default:
		return Result{Path: rel}, &project.PathError{Path: path, Err: statErr}
	}

	return e.propose(ctx, &change{
		op:       OpWriteFile,
		abs:      abs,
		rel:      rel,
		snap:     snap,
		newLines: proposed.Lines(),
		newData:  proposed.Bytes(),
		applied:  1,
	}, opts)
}

// EnsureLines appends the trimmed, non-empty lines of content that the
// file does not already contain (compared after trimming). A missing file
// is created with all of them.
func (e *Engine) EnsureLines(ctx context.Context, path, content string, opts CallOptions) (Result, error) {
	var wanted []string
	for l := range strings.Lines(content) {
		l = strings.TrimSpace(l)
		if l != "" && !slices.Contains(wanted, l) {
			wanted = append(wanted, l)
		}
	}
	if len(wanted) == 0 {
		return Result{Path: path}, edit.ErrEmptyBatch
	}

	abs, err := e.paths.Resolve(path)
	if err != nil {
		return Result{Path: path}, err
	}
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		return e.WriteFile(ctx, path, textbuf.Join(wanted, true, textbuf.LF), opts)
	}

	abs, snap, err := e.load(OpEnsureLines, path)
	if err != nil {
		return Result{Path: path}, err
	}
	present := make(map[string]bool, snap.Len())
	for _, l := range snap.Lines() {
		present[strings.TrimSpace(l)] = true
	}
	var missing []string
	for _, l := range wanted {
		if !present[l] {
			missing = append(missing, l)
		}
	}

	newLines := append(snap.Lines(), missing...)
	return e.propose(ctx, &change{
		op:       OpEnsureLines,
		abs:      abs,
		rel:      e.paths.Rel(abs),
		snap:     snap,
		newLines: newLines,
		newData:  []byte(textbuf.Join(newLines, snap.TrailingNewline() || len(missing) > 0, snap.LineEnding())),
		applied:  len(missing),
	}, opts)
}

// FileInfo is one entry of ListFiles.
type FileInfo struct {
	Path    string    `json:"path"` // workspace-relative, slash separated
	Size    int64     `json:"size"`
	Lines   int       `json:"lines"`
	ModTime time.Time `json:"mod_time"`
}

// ListFiles returns regular files under the root whose relative path
// matches pattern. A pattern starting with "**/" matches the rest against
// the base name at any depth; "" lists everything. The state directory and
// .git are never listed.
func (e *Engine) ListFiles(pattern string) ([]FileInfo, error) {
	match := func(rel string) (bool, error) { return true, nil }
	switch {
	case pattern == "" || pattern == "**" || pattern == "**/*":
	case strings.HasPrefix(pattern, "**/"):
		base := strings.TrimPrefix(pattern, "**/")
		match = func(rel string) (bool, error) { return path.Match(base, path.Base(rel)) }
	default:
		match = func(rel string) (bool, error) { return path.Match(pattern, rel) }
	}

	var out []FileInfo
	err := filepath.WalkDir(e.paths.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != e.paths.Root && (d.Name() == ".git" || p == e.paths.StateDir || p == e.paths.BackupDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel := e.paths.Rel(p)
		ok, err := match(rel)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, FileInfo{Path: rel, Size: info.Size(), Lines: countLines(data), ModTime: info.ModTime()})
		return nil
	})
	return out, err
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// Package diff renders line-level differences between an original
// snapshot and a proposed buffer.
package diff

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jensroland/multiedit/internal/edit"
	"github.com/jensroland/multiedit/internal/lineset"
	"github.com/jensroland/multiedit/internal/textbuf"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

type OpKind int

const (
	Equal OpKind = iota
	Delete
	Insert
)

// Op is a run of lines that are equal, removed from old, or added in new.
type Op struct {
	Kind  OpKind
	Lines []string
}

// Lines computes the line-level edit script turning old into new.
func Lines(old, new []string) []Op {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(encode(old), encode(new))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	ops := make([]Op, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var kind OpKind
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = Delete
		case diffmatchpatch.DiffInsert:
			kind = Insert
		}
		ops = append(ops, Op{Kind: kind, Lines: decode(d.Text)})
	}
	return ops
}

// encode terminates every line so the last line diffs like the others.
func encode(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func decode(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// File is one whole side of a diff.
type File struct {
	Lines           []string
	TrailingNewline bool
	LineEnding      string // textbuf.LF or textbuf.CRLF
}

// SnapshotFile describes snap as a diff side. A nil snapshot is an absent
// file.
func SnapshotFile(snap *textbuf.Snapshot) File {
	if snap == nil {
		return File{}
	}
	return File{Lines: snap.Lines(), TrailingNewline: snap.TrailingNewline(), LineEnding: snap.LineEnding()}
}

// noEOL is appended to an unterminated last line while diffing so that
// adding or removing the final newline shows up as a changed line.
// textbuf rejects NUL bytes, so it never occurs in real content.
const noEOL = "\x00"

func (f File) keyed() []string {
	if f.TrailingNewline || len(f.Lines) == 0 {
		return f.Lines
	}
	out := slices.Clone(f.Lines)
	out[len(out)-1] += noEOL
	return out
}

func endingName(ending string) string {
	if ending == textbuf.CRLF {
		return "CRLF"
	}
	return "LF"
}

// EndingChange describes a line ending conversion between old and new,
// e.g. "CRLF -> LF", or returns "" when there is none. An absent or empty
// side has no line ending.
func EndingChange(old, new File) string {
	if len(old.Lines) == 0 || len(new.Lines) == 0 {
		return ""
	}
	from, to := endingName(old.LineEnding), endingName(new.LineEnding)
	if from == to {
		return ""
	}
	return from + " -> " + to
}

// UnifiedFiles is Unified over whole files. A missing final newline is
// marked with "\ No newline at end of file" as GNU diff does, and a line
// ending conversion is noted above the headers.
func UnifiedFiles(name string, old, new File, context int) string {
	out := Unified(name, old.keyed(), new.keyed(), context)
	if change := EndingChange(old, new); change != "" {
		out = "line endings: " + change + "\n" + out
	}
	return out
}

// FileStats is Stats over whole files; a changed final newline counts
// as one line removed and one added.
func FileStats(old, new File) (added, removed int) {
	return Stats(old.keyed(), new.keyed())
}

// FileChangedLines is ChangedLines over whole files starting at line 1.
func FileChangedLines(old, new File) lineset.LineSet {
	return ChangedLines(old.keyed(), new.keyed(), 1)
}

// Stats returns the number of added and removed lines.
func Stats(old, new []string) (added, removed int) {
	for _, op := range Lines(old, new) {
		switch op.Kind {
		case Insert:
			added += len(op.Lines)
		case Delete:
			removed += len(op.Lines)
		}
	}
	return added, removed
}

type entry struct {
	kind           OpKind
	text           string
	oldPos, newPos int // lines of old/new consumed before this entry
}

func flatten(ops []Op) []entry {
	var out []entry
	oldPos, newPos := 0, 0
	for _, op := range ops {
		for _, l := range op.Lines {
			out = append(out, entry{kind: op.Kind, text: l, oldPos: oldPos, newPos: newPos})
			if op.Kind != Insert {
				oldPos++
			}
			if op.Kind != Delete {
				newPos++
			}
		}
	}
	return out
}

// Unified renders a unified diff of old against new labelled a/name and
// b/name. It returns "" when the contents are identical.
func Unified(name string, old, new []string, context int) string {
	if slices.Equal(old, new) {
		return ""
	}
	context = max(context, 0)
	entries := flatten(Lines(old, new))

	// Two changes separated by at most 2*context equal lines share a hunk.
	var hunks [][2]int
	for i, e := range entries {
		if e.kind == Equal {
			continue
		}
		lo, hi := max(0, i-context), min(len(entries), i+context+1)
		if n := len(hunks); n > 0 && lo <= hunks[n-1][1] {
			hunks[n-1][1] = hi
			continue
		}
		hunks = append(hunks, [2]int{lo, hi})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", name, name)
	for _, h := range hunks {
		body := entries[h[0]:h[1]]
		oldLen, newLen := 0, 0
		for _, e := range body {
			if e.kind != Insert {
				oldLen++
			}
			if e.kind != Delete {
				newLen++
			}
		}
		fmt.Fprintf(&b, "@@ -%s +%s @@\n",
			hunkRange(body[0].oldPos, oldLen), hunkRange(body[0].newPos, newLen))
		for _, e := range body {
			switch e.kind {
			case Equal:
				b.WriteByte(' ')
			case Delete:
				b.WriteByte('-')
			case Insert:
				b.WriteByte('+')
			}
			text, unterminated := strings.CutSuffix(e.text, noEOL)
			b.WriteString(text)
			b.WriteByte('\n')
			if unterminated {
				b.WriteString("\\ No newline at end of file\n")
			}
		}
	}
	return b.String()
}

// hunkRange formats one side of a hunk header. An empty side names the
// line before the hunk.
func hunkRange(before, length int) string {
	switch length {
	case 0:
		return fmt.Sprintf("%d,0", before)
	case 1:
		return fmt.Sprintf("%d", before+1)
	default:
		return fmt.Sprintf("%d,%d", before+1, length)
	}
}

// ForEdit renders the diff of applying a single edit to snap. The edit
// must already be valid for the snapshot.
func ForEdit(snap *textbuf.Snapshot, e edit.FileEdit, context int) string {
	old := snap.Lines()
	return Unified(filepath.Base(snap.Path()), old, edit.Splice(slices.Clone(old), e), context)
}

// ChangedLines returns the 1-based line numbers in new (which begins at
// file line newStart) that are changed or added relative to old. A change
// that only removes lines reports the whole new range so it is not lost.
func ChangedLines(old, new []string, newStart int) lineset.LineSet {
	if slices.Equal(old, new) {
		return lineset.LineSet{}
	}
	if len(old) == 0 {
		return lineset.FromRange(newStart, newStart+len(new)-1)
	}

	var changed []int
	pos := newStart
	for _, op := range Lines(old, new) {
		switch op.Kind {
		case Equal:
			pos += len(op.Lines)
		case Insert:
			for range op.Lines {
				changed = append(changed, pos)
				pos++
			}
		}
	}
	if len(changed) == 0 {
		return lineset.FromRange(newStart, newStart+len(new)-1)
	}
	return lineset.New(changed...)
}

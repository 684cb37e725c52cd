// Package edit defines line-range edit descriptors and the pure functions
// that validate a batch against a snapshot and splice it into a buffer.
//
// All line numbers in a batch refer to the original snapshot. Edits are
// applied bottom-up so that coordinates of pending edits are never shifted
// by edits already applied below them.
package edit

import (
	"fmt"
	"strings"
)

// FileEdit replaces the inclusive, 1-indexed line range [StartLine, EndLine]
// of the original snapshot with NewContent.
type FileEdit struct {
	StartLine   int    `json:"start_line" yaml:"start_line" jsonschema:"minimum=1,description=First line to replace (1-indexed and inclusive)"`
	EndLine     int    `json:"end_line" yaml:"end_line" jsonschema:"minimum=1,description=Last line to replace (inclusive and not before start_line)"`
	NewContent  string `json:"new_content,omitempty" yaml:"new_content,omitempty" jsonschema:"description=Replacement text. Empty deletes the range"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" jsonschema:"description=Why this edit is made"`
}

// Batch is a set of edits against one snapshot. Order carries no meaning
// for the result; positions identify edits in validation reports.
type Batch []FileEdit

// ContentLines splits NewContent into lines. Empty content yields no lines
// (a deletion). A single trailing terminator is not an extra line, and "\r"
// before each "\n" is dropped so content joins cleanly with either ending.
func (e FileEdit) ContentLines() []string {
	return SplitContent(e.NewContent)
}

// SplitContent is the line splitter used for replacement text.
func SplitContent(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Span returns the number of original lines the edit covers.
func (e FileEdit) Span() int {
	return e.EndLine - e.StartLine + 1
}

// Delta returns the change in buffer length caused by this edit.
func (e FileEdit) Delta() int {
	return len(e.ContentLines()) - e.Span()
}

// IsDelete returns true if the edit removes lines without replacement.
func (e FileEdit) IsDelete() bool {
	return e.NewContent == ""
}

// String returns a human-readable representation of the edit.
func (e FileEdit) String() string {
	rng := fmt.Sprintf("[%d-%d]", e.StartLine, e.EndLine)
	if e.StartLine == e.EndLine {
		rng = fmt.Sprintf("[%d]", e.StartLine)
	}
	var s string
	if e.IsDelete() {
		s = "Delete" + rng
	} else {
		s = fmt.Sprintf("Replace%s with %d line(s)", rng, len(e.ContentLines()))
	}
	if e.Description != "" {
		s += " (" + e.Description + ")"
	}
	return s
}

// overlaps reports whether two well-formed closed ranges intersect.
func overlaps(a, b FileEdit) bool {
	return a.StartLine <= b.EndLine && b.StartLine <= a.EndLine
}

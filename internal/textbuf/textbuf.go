// Package textbuf loads files into immutable, line-indexed snapshots and
// joins edited lines back into bytes using the snapshot's conventions.
package textbuf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"
)

// Line terminators recognised by Split.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// ErrDecode is wrapped by every DecodeError.
var ErrDecode = errors.New("content is not valid UTF-8 text")

// DecodeError reports content that cannot be treated as text.
type DecodeError struct {
	Path   string
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s at byte %d", e.Path, e.Reason, e.Offset)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// Snapshot is an immutable view of a file at one instant.
type Snapshot struct {
	path            string
	raw             []byte
	lines           []string
	trailingNewline bool
	lineEnding      string
}

// Load reads path into a Snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(path, data)
}

// FromBytes builds a Snapshot from content already in memory.
func FromBytes(path string, data []byte) (*Snapshot, error) {
	if err := checkText(path, data); err != nil {
		return nil, err
	}
	lines, trailing, ending := Split(string(data))
	return &Snapshot{
		path:            path,
		raw:             slices.Clone(data),
		lines:           lines,
		trailingNewline: trailing,
		lineEnding:      ending,
	}, nil
}

// Path returns the path the snapshot was read from.
func (s *Snapshot) Path() string { return s.path }

// Len returns the number of lines.
func (s *Snapshot) Len() int { return len(s.lines) }

// Lines returns a copy of the lines, without terminators.
func (s *Snapshot) Lines() []string { return slices.Clone(s.lines) }

// Line returns the 1-indexed line n.
func (s *Snapshot) Line(n int) string { return s.lines[n-1] }

// TrailingNewline reports whether the content ended with a terminator.
func (s *Snapshot) TrailingNewline() bool { return s.trailingNewline }

// LineEnding returns LF or CRLF.
func (s *Snapshot) LineEnding() string { return s.lineEnding }

// Bytes returns a copy of the exact bytes the snapshot was built from.
func (s *Snapshot) Bytes() []byte { return slices.Clone(s.raw) }

// Text returns the exact content as a string.
func (s *Snapshot) Text() string { return string(s.raw) }

// Join renders lines with the snapshot's terminator and trailing-newline
// convention.
func (s *Snapshot) Join(lines []string) []byte {
	return []byte(Join(lines, s.trailingNewline, s.lineEnding))
}

// Split breaks text into lines. CRLF is used as the terminator only when
// every "\n" in text is preceded by "\r"; otherwise lines split on "\n" and
// any stray "\r" stays part of the line, so Join(Split(x)) == x always.
func Split(text string) (lines []string, trailingNewline bool, ending string) {
	ending = LF
	if n := strings.Count(text, "\n"); n > 0 && strings.Count(text, CRLF) == n {
		ending = CRLF
	}
	if text == "" {
		return nil, false, ending
	}
	trailingNewline = strings.HasSuffix(text, ending)
	return strings.Split(strings.TrimSuffix(text, ending), ending), trailingNewline, ending
}

// Join is the inverse of Split. Zero lines always render as empty content.
func Join(lines []string, trailingNewline bool, ending string) string {
	if len(lines) == 0 {
		return ""
	}
	out := strings.Join(lines, ending)
	if trailingNewline {
		out += ending
	}
	return out
}

func checkText(path string, data []byte) error {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return &DecodeError{Path: path, Offset: i, Reason: "NUL byte (binary content)"}
	}
	if !utf8.Valid(data) {
		off := 0
		for off < len(data) {
			r, size := utf8.DecodeRune(data[off:])
			if r == utf8.RuneError && size <= 1 {
				break
			}
			off += size
		}
		return &DecodeError{Path: path, Offset: off, Reason: "invalid UTF-8 sequence"}
	}
	return nil
}

// Package format renders previews and reports for the terminal.
package format

import (
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Magenta = "\033[35m"
	Red     = "\033[31m"
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		DisableColors()
	} else if !term.IsTerminal(int(os.Stdout.Fd())) {
		DisableColors()
	}
}

// DisableColors turns every escape sequence into the empty string.
func DisableColors() {
	Reset, Bold, Dim = "", "", ""
	Yellow, Cyan, Green, Magenta, Red = "", "", "", "", ""
}

// TermWidth returns the terminal width, defaulting to 80.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// UnifiedLine is the role of one line in a unified diff.
type UnifiedLine int

const (
	ContextLine UnifiedLine = iota
	HeaderLine
	HunkLine
	RemovedLine
	AddedLine
	NoteLine // "\ No newline at end of file" and notes before the headers
)

// ClassifyUnified returns the role of each line. "--- " and "+++ " are
// file headers only before the first hunk; inside a hunk they are a
// removal or an addition whose text starts with "-- " or "++ ".
func ClassifyUnified(lines []string) []UnifiedLine {
	out := make([]UnifiedLine, len(lines))
	inHunk := false
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "@@"):
			inHunk = true
			out[i] = HunkLine
		case !inHunk && (strings.HasPrefix(l, "--- ") || strings.HasPrefix(l, "+++ ")):
			out[i] = HeaderLine
		case !inHunk:
			out[i] = NoteLine
		case strings.HasPrefix(l, "\\"):
			out[i] = NoteLine
		case strings.HasPrefix(l, "-"):
			out[i] = RemovedLine
		case strings.HasPrefix(l, "+"):
			out[i] = AddedLine
		}
	}
	return out
}

// ColorizeUnified colors the lines of a unified diff: file headers bold,
// hunk headers cyan, removals red, additions green and notes dim.
func ColorizeUnified(diff string) string {
	if diff == "" || Reset == "" {
		return diff
	}
	body, nl := strings.CutSuffix(diff, "\n")
	lines := strings.Split(body, "\n")
	colors := [...]string{
		HeaderLine:  Bold,
		HunkLine:    Cyan,
		RemovedLine: Red,
		AddedLine:   Green,
		NoteLine:    Dim,
	}
	for i, kind := range ClassifyUnified(lines) {
		if c := colors[kind]; c != "" && lines[i] != "" {
			lines[i] = c + lines[i] + Reset
		}
	}
	out := strings.Join(lines, "\n")
	if nl {
		out += "\n"
	}
	return out
}

// Package confirm decides whether a previewed change may be written.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/jensroland/multiedit/internal/format"
)

type Decision int

const (
	Rejected Decision = iota
	Approved
)

func (d Decision) String() string {
	if d == Approved {
		return "approved"
	}
	return "rejected"
}

// Preview is what a gate shows before a write.
type Preview struct {
	Path    string // workspace-relative
	Diff    string // unified diff, uncolored
	Summary string // e.g. "2 edit(s), +3 -1"
	Notes   string // edit descriptions, may be empty
	Old     []string
	New     []string
}

// Gate is consulted once per mutating call, after validation and before
// any backup or write.
type Gate interface {
	Confirm(ctx context.Context, p Preview) (Decision, error)
}

// Func adapts a function to a Gate.
type Func func(ctx context.Context, p Preview) (Decision, error)

func (f Func) Confirm(ctx context.Context, p Preview) (Decision, error) { return f(ctx, p) }

// AutoApprove approves everything without showing it.
var AutoApprove Gate = Func(func(context.Context, Preview) (Decision, error) {
	return Approved, nil
})

// Styles accepted by Prompt.Style.
const (
	StyleUnified    = "unified"
	StyleSideBySide = "side-by-side"
)

// Prompt prints the preview to Out and reads a y/N answer from In.
// Anything but an explicit yes, including end of input, rejects.
// A Prompt reads In through one buffer for its whole life, so answers
// queued on a pipe are consumed one per call. Use it through a pointer.
type Prompt struct {
	In    io.Reader
	Out   io.Writer
	Style string
	Width int

	mu      sync.Mutex
	reader  *bufio.Reader
	pending chan string // read still in flight after a cancelled call
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (p *Prompt) Confirm(ctx context.Context, pv Preview) (Decision, error) {
	width := p.Width
	if width <= 0 {
		width = format.TermWidth()
	}
	fmt.Fprintf(p.Out, "%s%s%s  %s\n", format.Bold, pv.Path, format.Reset, pv.Summary)
	if pv.Notes != "" {
		fmt.Fprintln(p.Out, format.FormatBorderedText(pv.Notes, "description", width))
	}
	if p.Style == StyleSideBySide {
		fmt.Fprintln(p.Out, format.FormatSideBySideDiff(pv.Old, pv.New, width, 0))
	} else {
		fmt.Fprint(p.Out, format.ColorizeUnified(pv.Diff))
	}
	fmt.Fprint(p.Out, "Apply these changes? [y/N] ")

	answer := p.readLine()
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return Rejected, ctx.Err()
	case line := <-answer:
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
		if IsYes(line) {
			return Approved, nil
		}
		return Rejected, nil
	}
}

// readLine returns the channel of the next line from In. A read left
// running by a cancelled call is reused so its line goes to the next
// caller instead of being dropped.
func (p *Prompt) readLine() <-chan string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		return p.pending
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	ch := make(chan string, 1)
	go func(r *bufio.Reader) {
		line, _ := r.ReadString('\n')
		ch <- line
	}(p.reader)
	p.pending = ch
	return ch
}

// IsYes reports whether s is an affirmative answer.
func IsYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

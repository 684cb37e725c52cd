// Package linemap maps edits made against an original snapshot onto the
// coordinates of the buffer they produce.
package linemap

import (
	"github.com/jensroland/multiedit/internal/edit"
	"github.com/jensroland/multiedit/internal/lineset"
)

// Placement is where one edit's replacement ended up in the new buffer.
// A deletion has an empty Lines set and Start is the line that now follows
// the removed range.
type Placement struct {
	Index int // submission position in the batch
	Start int
	End   int // Start-1 for deletions
	Lines lineset.LineSet
	Delta int // net change in line count from this edit
}

// Place computes the placement of every edit of a validated batch, in
// submission order. Each edit's new start is its original start shifted
// by the net delta of every edit above it; edits below it cannot move it.
func Place(batch edit.Batch) []Placement {
	out := make([]Placement, len(batch))
	for i, e := range batch {
		shift := 0
		for j, other := range batch {
			if j != i && other.EndLine < e.StartLine {
				shift += other.Delta()
			}
		}
		start := e.StartLine + shift
		n := len(e.ContentLines())
		out[i] = Placement{
			Index: i,
			Start: start,
			End:   start + n - 1,
			Lines: lineset.FromRange(start, start+n-1),
			Delta: e.Delta(),
		}
	}
	return out
}

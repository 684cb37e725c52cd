package edit

import (
	"cmp"
	"slices"
)

// Schedule returns the submission indices of batch in application order:
// start descending, then end descending, then submission order ascending.
func Schedule(batch Batch) []int {
	order := make([]int, len(batch))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ea, eb := batch[a], batch[b]
		if c := cmp.Compare(eb.StartLine, ea.StartLine); c != 0 {
			return c
		}
		if c := cmp.Compare(eb.EndLine, ea.EndLine); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// Splice replaces the 1-indexed inclusive range [e.StartLine, e.EndLine]
// of buf with the edit's content lines. The caller guarantees the range
// is valid for buf.
func Splice(buf []string, e FileEdit) []string {
	return slices.Replace(buf, e.StartLine-1, e.EndLine, e.ContentLines()...)
}

// Apply returns a new buffer with every edit of a validated batch spliced
// into a copy of lines. The input slice is never modified.
func Apply(lines []string, batch Batch) []string {
	buf := slices.Clone(lines)
	for _, i := range Schedule(batch) {
		buf = Splice(buf, batch[i])
	}
	return buf
}

// Insert returns a copy of lines with content inserted after line `after`
// (0 inserts at the top). An out-of-range position yields a report.
func Insert(lines []string, after int, content string) ([]string, error) {
	if after < 0 || after > len(lines) {
		e := FileEdit{StartLine: after, EndLine: after, NewContent: content}
		return nil, &ValidationReport{
			LineCount:  len(lines),
			Violations: []Violation{{Kind: RangeOutOfBounds, Index: 0, Other: -1, Edit: e}},
		}
	}
	buf := slices.Clone(lines)
	return slices.Insert(buf, after, SplitContent(content)...), nil
}

package edit

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Kind classifies a validation violation.
type Kind int

const (
	RangeOutOfBounds Kind = iota // start < 1 or end beyond the last line
	InvalidRange                 // end < start
	OverlapDetected              // two edits share at least one line
)

func (k Kind) String() string {
	switch k {
	case RangeOutOfBounds:
		return "RangeOutOfBounds"
	case InvalidRange:
		return "InvalidRange"
	case OverlapDetected:
		return "OverlapDetected"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyBatch       = errors.New("batch contains no edits")
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	ErrInvalidRange     = errors.New("invalid range")
	ErrOverlap          = errors.New("overlapping edits")
)

// Violation is one problem found in a batch. Index (and Other, for
// overlaps) are 0-based submission positions; Other is -1 otherwise.
type Violation struct {
	Kind  Kind
	Index int
	Other int
	Edit  FileEdit
}

func (v Violation) String() string {
	e := v.Edit
	switch v.Kind {
	case OverlapDetected:
		return fmt.Sprintf("OverlapDetected(%d, %d)", v.Index, v.Other)
	case InvalidRange:
		return fmt.Sprintf("InvalidRange: edit %d ends at line %d before it starts at line %d", v.Index, e.EndLine, e.StartLine)
	default:
		return fmt.Sprintf("RangeOutOfBounds: edit %d lines %d-%d", v.Index, e.StartLine, e.EndLine)
	}
}

// ValidationReport collects every violation in a rejected batch.
type ValidationReport struct {
	LineCount  int
	Violations []Violation
}

func (r *ValidationReport) Error() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("batch rejected (%d violation(s), file has %d lines): %s",
		len(r.Violations), r.LineCount, strings.Join(parts, "; "))
}

// Is lets errors.Is match a report against the per-kind sentinels.
func (r *ValidationReport) Is(target error) bool {
	switch target {
	case ErrRangeOutOfBounds:
		return r.Has(RangeOutOfBounds)
	case ErrInvalidRange:
		return r.Has(InvalidRange)
	case ErrOverlap:
		return r.Has(OverlapDetected)
	}
	return false
}

// Has reports whether any violation is of kind k.
func (r *ValidationReport) Has(k Kind) bool {
	return slices.ContainsFunc(r.Violations, func(v Violation) bool { return v.Kind == k })
}

// Overlaps returns the (i, j) pairs of overlapping edits, i < j.
func (r *ValidationReport) Overlaps() [][2]int {
	var pairs [][2]int
	for _, v := range r.Violations {
		if v.Kind == OverlapDetected {
			pairs = append(pairs, [2]int{v.Index, v.Other})
		}
	}
	return pairs
}

// Validate checks batch against a snapshot of lineCount lines and returns
// nil or a *ValidationReport listing every violation found.
func Validate(batch Batch, lineCount int) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	var violations []Violation
	var wellFormed []int
	for i, e := range batch {
		if e.EndLine < e.StartLine {
			violations = append(violations, Violation{Kind: InvalidRange, Index: i, Other: -1, Edit: e})
		} else {
			wellFormed = append(wellFormed, i)
		}
		if e.StartLine < 1 || e.EndLine > lineCount || e.EndLine < 1 || e.StartLine > lineCount {
			violations = append(violations, Violation{Kind: RangeOutOfBounds, Index: i, Other: -1, Edit: e})
		}
	}

	// Sweep in start order; each edit is compared only with later-starting
	// edits that begin before it ends, which yields every intersecting pair.
	slices.SortStableFunc(wellFormed, func(a, b int) int {
		return batch[a].StartLine - batch[b].StartLine
	})
	for x, i := range wellFormed {
		for _, j := range wellFormed[x+1:] {
			if batch[j].StartLine > batch[i].EndLine {
				break
			}
			if overlaps(batch[i], batch[j]) {
				lo, hi := min(i, j), max(i, j)
				violations = append(violations, Violation{Kind: OverlapDetected, Index: lo, Other: hi, Edit: batch[lo]})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	slices.SortFunc(violations, func(a, b Violation) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		if a.Index != b.Index {
			return a.Index - b.Index
		}
		return a.Other - b.Other
	})
	return &ValidationReport{LineCount: lineCount, Violations: violations}
}

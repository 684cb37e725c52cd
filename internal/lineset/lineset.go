// Package lineset holds sets of 1-based line numbers written in compact
// notation such as "3,5-7".
package lineset

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidLine is returned for line numbers below 1.
var ErrInvalidLine = errors.New("line numbers start at 1")

// LineSet represents a set of 1-based line numbers, stored as a sorted,
// deduplicated slice. It serializes to compact notation like "5,7-8,12".
type LineSet struct {
	lines []int
}

// Range is a contiguous, inclusive run of lines.
type Range struct {
	Start, End int
}

// New creates a LineSet from individual line numbers.
func New(lines ...int) LineSet {
	return LineSet{lines: dedupSorted(slices.Clone(lines))}
}

// FromRange creates a LineSet covering [start, end].
func FromRange(start, end int) LineSet {
	if start <= 0 || end < start {
		return LineSet{}
	}
	lines := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		lines = append(lines, i)
	}
	return LineSet{lines: lines}
}

// FromString parses compact notation like "5", "5-7", or "5,7-8,12".
func FromString(s string) (LineSet, error) {
	var lines []int
	for part := range strings.SplitSeq(strings.TrimSpace(s), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parseLine(lo)
		if err != nil {
			return LineSet{}, err
		}
		end := start
		if isRange {
			if end, err = parseLine(hi); err != nil {
				return LineSet{}, err
			}
			if end < start {
				return LineSet{}, fmt.Errorf("invalid range %d-%d", start, end)
			}
		}
		for i := start; i <= end; i++ {
			lines = append(lines, i)
		}
	}
	return LineSet{lines: dedupSorted(lines)}, nil
}

func parseLine(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid line number %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("line %d: %w", n, ErrInvalidLine)
	}
	return n, nil
}

// Ranges returns the contiguous runs of the set in ascending order.
func (ls LineSet) Ranges() []Range {
	var out []Range
	for _, n := range ls.lines {
		if k := len(out) - 1; k >= 0 && out[k].End+1 == n {
			out[k].End = n
			continue
		}
		out = append(out, Range{Start: n, End: n})
	}
	return out
}

// String returns the compact notation: "5,7-8,12".
func (ls LineSet) String() string {
	ranges := ls.Ranges()
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		if r.Start == r.End {
			parts[i] = strconv.Itoa(r.Start)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
	}
	return strings.Join(parts, ",")
}

func (ls LineSet) IsEmpty() bool { return len(ls.lines) == 0 }
func (ls LineSet) Len() int      { return len(ls.lines) }

// Lines returns the sorted line numbers.
func (ls LineSet) Lines() []int {
	return slices.Clone(ls.lines)
}

// Contains reports whether line is in the set.
func (ls LineSet) Contains(line int) bool {
	_, found := slices.BinarySearch(ls.lines, line)
	return found
}

// MarshalJSON serializes as a JSON string in compact notation.
func (ls LineSet) MarshalJSON() ([]byte, error) {
	if ls.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(ls.String())
}

func (ls *LineSet) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unexpected JSON for LineSet: %s", data)
	}
	if s == nil {
		ls.lines = nil
		return nil
	}
	parsed, err := FromString(*s)
	if err != nil {
		return err
	}
	*ls = parsed
	return nil
}

func dedupSorted(nums []int) []int {
	if len(nums) == 0 {
		return nil
	}
	slices.Sort(nums)
	return slices.Compact(nums)
}

package format

import (
	"fmt"
	"strings"

	"github.com/jensroland/multiedit/internal/diff"
)

type rowTag int

const (
	rowEqual rowTag = iota
	rowDelete
	rowInsert
	rowReplace
)

type diffRow struct {
	tag         rowTag
	left, right string
}

// sideBySideRows pairs removed lines with the insertions that follow them.
func sideBySideRows(old, new []string) []diffRow {
	var rows []diffRow
	var dels, ins []string

	flush := func() {
		for i := range max(len(dels), len(ins)) {
			var r diffRow
			switch {
			case i >= len(dels):
				r = diffRow{tag: rowInsert, right: ins[i]}
			case i >= len(ins):
				r = diffRow{tag: rowDelete, left: dels[i]}
			default:
				r = diffRow{tag: rowReplace, left: dels[i], right: ins[i]}
			}
			rows = append(rows, r)
		}
		dels, ins = nil, nil
	}

	for _, op := range diff.Lines(old, new) {
		switch op.Kind {
		case diff.Equal:
			flush()
			for _, l := range op.Lines {
				rows = append(rows, diffRow{tag: rowEqual, left: l, right: l})
			}
		case diff.Delete:
			dels = append(dels, op.Lines...)
		case diff.Insert:
			ins = append(ins, op.Lines...)
		}
	}
	flush()
	return rows
}

// FormatSideBySideDiff renders old and new in two bordered columns that
// fit width. At most maxRows rows are shown when maxRows > 0.
func FormatSideBySideDiff(old, new []string, width, maxRows int) string {
	colW := max((width-7)/2, 20)
	rows := sideBySideRows(expandTabs(old), expandTabs(new))

	total := len(rows)
	truncated := maxRows > 0 && total > maxRows
	if truncated {
		rows = rows[:maxRows]
	}

	blank := strings.Repeat(" ", colW)
	paint := func(color, s string) string { return color + padOrTrunc(s, colW) + Reset }

	lblL := "─ Before "
	lblR := "─ After "
	output := []string{fmt.Sprintf("┌%s%s┬%s%s┐",
		lblL, strings.Repeat("─", colW+2-runeLen(lblL)),
		lblR, strings.Repeat("─", colW+2-runeLen(lblR)))}

	for _, r := range rows {
		var left, right string
		switch r.tag {
		case rowEqual:
			left, right = paint(Dim, r.left), paint(Dim, r.right)
		case rowDelete:
			left, right = paint(Red, r.left), blank
		case rowInsert:
			left, right = blank, paint(Green, r.right)
		case rowReplace:
			left, right = paint(Red, r.left), paint(Green, r.right)
		}
		output = append(output, fmt.Sprintf("│ %s │ %s │", left, right))
	}

	output = append(output, fmt.Sprintf("└%s┴%s┘",
		strings.Repeat("─", colW+2), strings.Repeat("─", colW+2)))

	if truncated {
		output = append(output, fmt.Sprintf("  %s… %d more lines not shown%s",
			Dim, total-maxRows, Reset))
	}
	return strings.Join(output, "\n")
}

func expandTabs(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ReplaceAll(l, "\t", "    ")
	}
	return out
}

func padOrTrunc(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s + strings.Repeat(" ", w-len(r))
}

func runeLen(s string) int {
	return len([]rune(s))
}

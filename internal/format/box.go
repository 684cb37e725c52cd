package format

import (
	"fmt"
	"strings"
)

// FormatBorderedText renders text inside a box of the given outer width,
// wrapping each paragraph at word boundaries.
func FormatBorderedText(text, title string, width int) string {
	innerW := max(width-4, 30)

	var wrapped []string
	for paragraph := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		wrapped = append(wrapped, wordWrap(paragraph, innerW)...)
	}

	top := strings.Repeat("─", innerW+2)
	if title != "" {
		lbl := fmt.Sprintf("─ %s ", title)
		top = lbl + strings.Repeat("─", max(innerW+2-runeLen(lbl), 0))
	}

	output := []string{"┌" + top + "┐"}
	for _, line := range wrapped {
		output = append(output, fmt.Sprintf("│ %s │", padOrTrunc(line, innerW)))
	}
	output = append(output, "└"+strings.Repeat("─", innerW+2)+"┘")
	return strings.Join(output, "\n")
}

// wordWrap breaks text at word boundaries so no line exceeds width runes,
// except single words longer than width.
func wordWrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runeLen(current)+1+runeLen(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

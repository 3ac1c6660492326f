package text

import "strings"

// SplitLines converts a multiline string into a sequence of lines. Surrounding
// whitespace of the whole text is trimmed first, so a trailing newline does
// not produce an empty last line.
func SplitLines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// CountWords returns the number of whitespace separated words in lines.
func CountWords(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(strings.Fields(l))
	}
	return n
}

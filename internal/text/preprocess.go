package text

import "strings"

// Sanitize makes one line of raw text safe for the festival reader.
// Double quotes delimit utterances and parentheses belong to the Scheme
// syntax, so quotes become apostrophes and parentheses are removed. The
// cleaned line is returned wrapped in double quotes.
func Sanitize(line string) string {
	line = strings.ReplaceAll(line, `"`, "'")
	line = strings.ReplaceAll(line, "(", "")
	line = strings.ReplaceAll(line, ")", "")
	return `"` + line + `"`
}

// Preprocess formats a multiline text as festival input: one sanitized,
// double-quoted utterance per line. Empty lines are dropped.
func Preprocess(input string) string {
	lines := strings.Split(input, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		out = append(out, Sanitize(line))
	}
	return strings.Join(out, "\n")
}

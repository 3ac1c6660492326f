package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares raw input read from a file, stdin or a request body.
// It normalizes line endings to \n and rejects whitespace-only input.
// Blank lines inside the text are kept; the pipeline drops them itself.
func Normalize(s string) (string, error) {
	// CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

package phonemize

import "github.com/super-leedc/phonemizer/internal/text"

// Lines is the text handed to and returned by Phonemize: either a single
// multiline string or an explicit sequence of lines. The output of
// Phonemize has the same shape as its input.
type Lines struct {
	raw      string
	seq      []string
	isString bool
}

// FromString wraps a multiline string.
func FromString(s string) Lines {
	return Lines{raw: s, isString: true}
}

// FromSlice wraps a sequence of lines.
func FromSlice(lines []string) Lines {
	return Lines{seq: lines}
}

// IsString reports whether l was built from a string.
func (l Lines) IsString() bool { return l.isString }

// Slice returns l as a sequence of lines. A string is trimmed and split on
// newlines, so the distinction between a trailing empty line and no
// trailing line is lost.
func (l Lines) Slice() []string {
	if l.isString {
		return text.SplitLines(l.raw)
	}
	return l.seq
}

// String returns l as a newline-joined string.
func (l Lines) String() string {
	if l.isString {
		return l.raw
	}
	return text.JoinLines(l.seq)
}

// reshape returns out with the same shape as l.
func (l Lines) reshape(out []string) Lines {
	if l.isString {
		return FromString(text.JoinLines(out))
	}
	return FromSlice(out)
}

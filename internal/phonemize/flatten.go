package phonemize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/super-leedc/phonemizer/internal/sexp"
)

// ErrMalformedTree is returned when festival output is not a well formed
// SylStructure tree.
var ErrMalformedTree = errors.New("malformed syllable tree")

// EmptyUtterance is the line festival prints for an utterance it could not
// analyze.
const EmptyUtterance = "(nil nil nil)"

// Flattener turns festival SylStructure trees into separator-joined strings.
type Flattener struct {
	Separator      Separator
	StripSeparator bool
}

// Flatten converts raw festival output, one tree per line, into one string
// per line. Empty lines and EmptyUtterance lines are skipped, as are lines
// flattening to whitespace only.
func (f Flattener) Flatten(raw string) ([]string, error) {
	var out []string
	for i, line := range strings.Split(raw, "\n") {
		if line == "" || line == EmptyUtterance {
			continue
		}

		tree, err := sexp.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTree, i+1, err)
		}

		s, err := f.FlattenLine(tree)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// FlattenLine flattens one parsed line: a list of words, each word a tag
// followed by syllables, each syllable a tag followed by phones.
func (f Flattener) FlattenLine(tree sexp.Expr) (string, error) {
	words, ok := tree.(sexp.List)
	if !ok {
		return "", fmt.Errorf("%w: line is %s, not a list of words", ErrMalformedTree, tree)
	}

	out := make([]string, 0, len(words))
	for _, w := range words {
		word, err := f.flattenWord(w)
		if err != nil {
			return "", err
		}
		if word != "" {
			out = append(out, word)
		}
	}
	return f.join(out, f.Separator.Word), nil
}

func (f Flattener) flattenWord(e sexp.Expr) (string, error) {
	word, ok := e.(sexp.List)
	if !ok || len(word) == 0 {
		return "", fmt.Errorf("%w: word %s", ErrMalformedTree, e)
	}

	sylls := make([]string, 0, len(word)-1)
	for _, s := range word[1:] {
		syll, err := f.flattenSyllable(s)
		if err != nil {
			return "", err
		}
		sylls = append(sylls, syll)
	}
	return f.join(sylls, f.Separator.Syllable), nil
}

func (f Flattener) flattenSyllable(e sexp.Expr) (string, error) {
	syll, ok := e.(sexp.List)
	if !ok || len(syll) == 0 {
		return "", fmt.Errorf("%w: syllable %s", ErrMalformedTree, e)
	}

	phones := make([]string, 0, len(syll)-1)
	for _, p := range syll[1:] {
		label, err := phoneLabel(p)
		if err != nil {
			return "", err
		}
		if label != "" {
			phones = append(phones, label)
		}
	}
	return f.join(phones, f.Separator.Phone), nil
}

// phoneLabel returns the unquoted name of a phone: the first element of its
// first element.
func phoneLabel(e sexp.Expr) (string, error) {
	phone, ok := e.(sexp.List)
	if !ok || len(phone) == 0 {
		return "", fmt.Errorf("%w: phone %s", ErrMalformedTree, e)
	}
	head, ok := phone[0].(sexp.List)
	if !ok || len(head) == 0 {
		return "", fmt.Errorf("%w: phone %s", ErrMalformedTree, e)
	}
	name, ok := head[0].(sexp.Atom)
	if !ok {
		return "", fmt.Errorf("%w: phone name %s", ErrMalformedTree, head[0])
	}
	return strings.ReplaceAll(string(name), `"`, ""), nil
}

// join joins items with sep, appending one trailing sep unless
// StripSeparator is set.
func (f Flattener) join(items []string, sep string) string {
	s := strings.Join(items, sep)
	if f.StripSeparator {
		return s
	}
	return s + sep
}

// Package sexp parses the parenthesized symbolic expressions printed by
// festival into nested lists.
//
// The grammar is the subset festival emits for relation trees: lists
// delimited by parentheses, double-quoted strings with backslash escapes,
// and bare atoms separated by whitespace. Quoted atoms keep their quotes;
// callers decide how to unquote them.
package sexp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned for unbalanced or otherwise ill-formed input.
var ErrMalformed = errors.New("malformed expression")

// Expr is either an Atom or a List.
type Expr interface {
	isExpr()
}

// Atom is a terminal token, as written in the source.
type Atom string

// List is a parenthesized sequence of expressions.
type List []Expr

func (Atom) isExpr() {}
func (List) isExpr() {}

func (a Atom) String() string { return string(a) }

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range l {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(&sb, e)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Parse reads exactly one expression from s. Leading and trailing
// whitespace is ignored; anything else after the expression is an error.
func Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %q after expression", ErrMalformed, p.toks[p.pos])
	}
	return e, nil
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) expr() (Expr, error) {
	if p.pos >= len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	tok := p.toks[p.pos]
	p.pos++

	switch tok {
	case "(":
		l := List{}
		for {
			if p.pos >= len(p.toks) {
				return nil, fmt.Errorf("%w: missing ')'", ErrMalformed)
			}
			if p.toks[p.pos] == ")" {
				p.pos++
				return l, nil
			}
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			l = append(l, e)
		}
	case ")":
		return nil, fmt.Errorf("%w: unexpected ')'", ErrMalformed)
	default:
		return Atom(tok), nil
	}
}

func tokenize(s string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			toks = append(toks, s[i:i+1])
			i++
		case c == '"':
			j := i + 1
			for ; j < len(s) && s[j] != '"'; j++ {
				if s[j] == '\\' {
					j++
				}
			}
			if j >= len(s) {
				return nil, fmt.Errorf("%w: unterminated string", ErrMalformed)
			}
			toks = append(toks, s[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(s) && !isDelim(s[j]) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks, nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"':
		return true
	}
	return false
}

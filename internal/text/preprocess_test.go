package text

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", `"hello world"`},
		{`he said "hi"`, `"he said 'hi'"`},
		{"f(x) = (y)", `"fx = y"`},
		{"", `""`},
		{`("")`, `"''"`},
		{"élan vital", `"élan vital"`},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_NoReservedCharactersInside(t *testing.T) {
	inputs := []string{
		`"`, `""""`, "(((", ")))", `a"b(c)d`, `(")`, "plain", " spaced out ",
	}

	for _, in := range inputs {
		got := Sanitize(in)
		if !strings.HasPrefix(got, `"`) || !strings.HasSuffix(got, `"`) || len(got) < 2 {
			t.Errorf("Sanitize(%q) = %q; want double-quote delimited", in, got)
			continue
		}
		inner := got[1 : len(got)-1]
		if strings.ContainsAny(inner, `"()`) {
			t.Errorf("Sanitize(%q) = %q; inner text still holds reserved characters", in, got)
		}
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "hello", `"hello"`},
		{"two lines", "hello\nworld", "\"hello\"\n\"world\""},
		{"empty lines dropped", "\nhello\n\n\nworld\n", "\"hello\"\n\"world\""},
		{"only empty lines", "\n\n", ""},
		{"whitespace line is kept", "a\n \nb", "\"a\"\n\" \"\n\"b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

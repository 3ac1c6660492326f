package phonemize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var errStub = errors.New("stub engine failure")

// treeLine renders a festival-like SylStructure line. Each word is a list
// of syllables, each syllable a list of phone labels.
func treeLine(words ...[][]string) string {
	var sb strings.Builder
	sb.WriteString("(")
	for _, w := range words {
		sb.WriteString(`(("w" ((name w)))`)
		for _, syl := range w {
			sb.WriteString(` (("syl" ((stress 0)))`)
			for _, ph := range syl {
				fmt.Fprintf(&sb, ` (("%s" ((name %s))))`, ph, ph)
			}
			sb.WriteString(")")
		}
		sb.WriteString(")")
	}
	sb.WriteString(")")
	return sb.String()
}

// stubEngine is a deterministic in-process engine: every word becomes
// syllables of at most two letters, one phone per letter.
type stubEngine struct {
	calls atomic.Int32
	fail  string
	block bool
}

func (s *stubEngine) Process(ctx context.Context, in string) (string, error) {
	s.calls.Add(1)

	var out []string
	for _, line := range strings.Split(in, "\n") {
		u := strings.TrimSuffix(strings.TrimPrefix(line, `"`), `"`)
		if s.fail != "" && strings.Contains(u, s.fail) {
			return "", errStub
		}
		words := strings.Fields(u)
		if len(words) == 0 {
			out = append(out, EmptyUtterance)
			continue
		}

		tree := make([][][]string, 0, len(words))
		for _, w := range words {
			var sylls [][]string
			letters := strings.Split(w, "")
			for i := 0; i < len(letters); i += 2 {
				sylls = append(sylls, letters[i:min(i+2, len(letters))])
			}
			tree = append(tree, sylls)
		}
		out = append(out, treeLine(tree...))
	}

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return strings.Join(out, "\n") + "\n", nil
}

// rawEngine returns a fixed output regardless of input.
type rawEngine struct {
	out string
}

func (r rawEngine) Process(context.Context, string) (string, error) {
	return r.out, nil
}

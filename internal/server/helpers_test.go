package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// letterEngine turns every word into one syllable with one phone per letter.
type letterEngine struct {
	err   error
	block bool
	calls atomic.Int32
}

func (e *letterEngine) Process(ctx context.Context, in string) (string, error) {
	e.calls.Add(1)
	if e.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if e.err != nil {
		return "", e.err
	}

	var out strings.Builder
	for _, line := range strings.Split(in, "\n") {
		words := strings.Fields(strings.ReplaceAll(line, `"`, ""))
		if len(words) == 0 {
			out.WriteString("(nil nil nil)\n")
			continue
		}
		out.WriteString("(")
		for _, w := range words {
			fmt.Fprintf(&out, `(("%s" ((name %s))) (("syl" ((stress 0)))`, w, w)
			for _, c := range strings.Split(w, "") {
				fmt.Fprintf(&out, ` (("%s" ((name %s))))`, c, c)
			}
			out.WriteString("))")
		}
		out.WriteString(")\n")
	}
	return out.String(), nil
}

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(name string) slog.Handler       { return c }

func (c *capturingHandler) find(msg string) (map[string]any, bool) {
	for _, r := range c.records {
		if r.Message != msg {
			continue
		}
		m := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			m[a.Key] = a.Value.Any()
			return true
		})
		return m, true
	}
	return nil, false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

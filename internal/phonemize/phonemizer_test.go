package phonemize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

var sample = []string{
	"hello world",
	"the quick brown fox",
	"",
	"jumps over",
	"the lazy dog",
	"  ",
	"a",
	"he said \"hi\" (twice)",
	"one more line",
	"and the last",
}

func TestPhonemize_StringInStringOut(t *testing.T) {
	p := New(&stubEngine{}, WithStripSeparator(true))

	out, err := p.PhonemizeString(context.Background(), "hello\n\nworld\n", 1)
	if err != nil {
		t.Fatalf("PhonemizeString: %v", err)
	}
	if want := "h-e|l-l|o\nw-o|r-l|d"; out != want {
		t.Errorf("out = %q, want %q", out, want)
	}

	got, err := p.Phonemize(context.Background(), FromString("hi"), 1)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if !got.IsString() || got.String() != "h-i" {
		t.Errorf("got = (%v, %q), want (true, %q)", got.IsString(), got.String(), "h-i")
	}
}

func TestPhonemize_SliceInSliceOut(t *testing.T) {
	p := New(&stubEngine{})

	got, err := p.Phonemize(context.Background(), FromSlice([]string{"ab", "", "c d"}), 1)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if got.IsString() {
		t.Error("IsString() = true, want false")
	}
	wantLines(t, got.Slice(), "a-b-| ", "c-| d-| ")
}

func TestPhonemize_SanitizesBeforeEngine(t *testing.T) {
	var seen string
	eng := engineFunc(func(_ context.Context, in string) (string, error) {
		seen = in
		return "", nil
	})

	if _, err := New(eng).PhonemizeLines(context.Background(), []string{`say "x" (now)`, "", "ok"}, 1); err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	if want := "\"say 'x' now\"\n\"ok\""; seen != want {
		t.Errorf("engine input = %q, want %q", seen, want)
	}
}

func TestPhonemize_EmptyLinesNeverProduceEntries(t *testing.T) {
	p := New(&stubEngine{})

	out, err := p.PhonemizeLines(context.Background(), []string{"", "x", "", "   ", "", "y", ""}, 1)
	if err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	wantLines(t, out, "x-| ", "y-| ")
}

func TestPhonemize_NoInputSkipsEngine(t *testing.T) {
	eng := &stubEngine{}
	p := New(eng)

	out, err := p.PhonemizeLines(context.Background(), []string{"", ""}, 1)
	if err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %q, want empty", out)
	}
	if n := eng.calls.Load(); n != 0 {
		t.Errorf("engine calls = %d, want 0", n)
	}
}

func TestPhonemize_InvalidJobs(t *testing.T) {
	p := New(&stubEngine{})

	for _, n := range []int{0, -1} {
		if _, err := p.PhonemizeString(context.Background(), "x", n); !errors.Is(err, ErrInvalidJobs) {
			t.Errorf("njobs=%d: err = %v, want ErrInvalidJobs", n, err)
		}
	}
}

func TestPhonemize_ChunkInvariance(t *testing.T) {
	for _, strip := range []bool{false, true} {
		p := New(&stubEngine{}, WithStripSeparator(strip))

		want, err := p.PhonemizeLines(context.Background(), sample, 1)
		if err != nil {
			t.Fatalf("PhonemizeLines: %v", err)
		}
		if len(want) == 0 {
			t.Fatal("serial output is empty")
		}

		for n := 2; n <= len(sample)+2; n++ {
			t.Run(fmt.Sprintf("strip=%v/jobs=%d", strip, n), func(t *testing.T) {
				got, err := p.PhonemizeLines(context.Background(), sample, n)
				if err != nil {
					t.Fatalf("PhonemizeLines: %v", err)
				}
				wantLines(t, got, want...)

				s, err := p.PhonemizeString(context.Background(), strings.Join(sample, "\n"), n)
				if err != nil {
					t.Fatalf("PhonemizeString: %v", err)
				}
				if joined := strings.Join(want, "\n"); s != joined {
					t.Errorf("out = %q, want %q", s, joined)
				}
			})
		}
	}
}

func TestPhonemize_OneEngineRunPerChunk(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f", "g"}

	tests := []struct {
		jobs int
		runs int32
	}{
		{1, 1},
		{3, 3}, // size = 7/3 = 2: chunks of 2, 2 and 3 lines
		{10, 7},
	}

	for _, tt := range tests {
		eng := &stubEngine{}
		if _, err := New(eng).PhonemizeLines(context.Background(), lines, tt.jobs); err != nil {
			t.Fatalf("jobs=%d: %v", tt.jobs, err)
		}
		if n := eng.calls.Load(); n != tt.runs {
			t.Errorf("jobs=%d: engine calls = %d, want %d", tt.jobs, n, tt.runs)
		}
	}
}

func TestPhonemize_ChunkFailureFailsCall(t *testing.T) {
	p := New(&stubEngine{fail: "boom"})

	out, err := p.PhonemizeLines(context.Background(), []string{"a", "b", "boom", "c"}, 4)
	if !errors.Is(err, errStub) {
		t.Fatalf("err = %v, want errStub", err)
	}
	if !strings.Contains(err.Error(), "chunk 3") {
		t.Errorf("err = %q, want it to name chunk 3", err)
	}
	if out != nil {
		t.Errorf("out = %q, want nil", out)
	}
}

func TestPhonemize_ChunkFailureCancelsOthers(t *testing.T) {
	p := New(&stubEngine{fail: "boom", block: true})

	done := make(chan error, 1)
	go func() {
		_, err := p.PhonemizeLines(context.Background(), []string{"a", "b", "boom", "c"}, 4)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, errStub) {
			t.Errorf("err = %v, want errStub", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocked chunks were not cancelled after a failure")
	}
}

func TestPhonemize_MalformedOutputReturnsNoPartialResult(t *testing.T) {
	raw := treeLine([][]string{{"a"}}) + "\n((unbalanced\n"
	p := New(rawEngine{out: raw})

	for _, n := range []int{1, 2} {
		out, err := p.Phonemize(context.Background(), FromSlice([]string{"a", "b"}), n)
		if !errors.Is(err, ErrMalformedTree) {
			t.Fatalf("njobs=%d: err = %v, want ErrMalformedTree", n, err)
		}
		if out.Slice() != nil {
			t.Errorf("njobs=%d: out = %q, want nil", n, out.Slice())
		}
	}
}

func TestPhonemize_SentinelOutputProducesNothing(t *testing.T) {
	p := New(rawEngine{out: EmptyUtterance + "\n"})

	out, err := p.PhonemizeLines(context.Background(), []string{"???"}, 1)
	if err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	p := New(&stubEngine{})
	q := p.With(WithSeparator(Separator{Word: "_"}), WithStripSeparator(true))

	if p.Separator() != DefaultSeparator || p.StripSeparator() {
		t.Errorf("original = (%+v, %v), want (%+v, false)", p.Separator(), p.StripSeparator(), DefaultSeparator)
	}
	if q.Separator() != (Separator{Word: "_"}) || !q.StripSeparator() {
		t.Errorf("copy = (%+v, %v), want ({Word:_}, true)", q.Separator(), q.StripSeparator())
	}
}

func TestPhonemize_LogsWordCount(t *testing.T) {
	h := &capturingHandler{}
	p := New(&stubEngine{}, WithLogger(slog.New(h)))

	if _, err := p.PhonemizeLines(context.Background(), []string{"hello world", "again"}, 2); err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}

	msgs := h.messages()
	for _, want := range []string{"phonemizing text", "dispatching chunks"} {
		if !slices.Contains(msgs, want) {
			t.Fatalf("messages = %q, want %q", msgs, want)
		}
	}
	if got := h.attr("phonemizing text", "words"); got != int64(3) {
		t.Errorf("words = %v, want 3", got)
	}
	if got := h.attr("dispatching chunks", "chunks"); got != int64(2) {
		t.Errorf("chunks = %v, want 2", got)
	}
	if id, ok := h.attr("dispatching chunks", "job_id").(string); !ok || id == "" {
		t.Errorf("job_id = %v, want a non-empty string", h.attr("dispatching chunks", "job_id"))
	}
}

func TestPhonemize_DispatchRecordNeedsDebugLevel(t *testing.T) {
	h := &capturingHandler{level: slog.LevelInfo}
	p := New(&stubEngine{}, WithLogger(slog.New(h)))

	out, err := p.PhonemizeLines(context.Background(), []string{"a", "b"}, 2)
	if err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	wantLines(t, out, "a-| ", "b-| ")

	if msgs := h.messages(); slices.Contains(msgs, "dispatching chunks") {
		t.Errorf("messages = %q, want no dispatch record at info level", msgs)
	}
}

func TestPhonemize_ChunkWorkersDoNotLog(t *testing.T) {
	h := &capturingHandler{}
	logger := slog.New(h)
	eng := &loggingEngine{log: logger}
	p := New(eng, WithLogger(logger))

	if _, err := p.PhonemizeLines(context.Background(), []string{"a", "b", "c"}, 3); err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	if n := h.count("engine run"); n != 0 {
		t.Errorf("engine records with njobs=3 = %d, want 0 (messages %q)", n, h.messages())
	}

	if _, err := p.PhonemizeLines(context.Background(), []string{"a", "b", "c"}, 1); err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	if n := h.count("engine run"); n != 1 {
		t.Errorf("engine records with njobs=1 = %d, want 1", n)
	}
}

func TestPhonemize_EngineWithoutQuietCopyStillRuns(t *testing.T) {
	eng := &stubEngine{}
	out, err := New(eng, WithLogger(slog.New(&capturingHandler{}))).PhonemizeLines(context.Background(), []string{"a", "b"}, 2)
	if err != nil {
		t.Fatalf("PhonemizeLines: %v", err)
	}
	wantLines(t, out, "a-| ", "b-| ")
	if n := eng.calls.Load(); n != 2 {
		t.Errorf("engine calls = %d, want 2", n)
	}
}

type engineFunc func(ctx context.Context, in string) (string, error)

func (f engineFunc) Process(ctx context.Context, in string) (string, error) { return f(ctx, in) }

// loggingEngine wraps stubEngine and logs every run. WithoutLogger returns
// a copy that logs nowhere.
type loggingEngine struct {
	stubEngine
	log *slog.Logger
}

func (e *loggingEngine) Process(ctx context.Context, in string) (string, error) {
	if e.log != nil {
		e.log.InfoContext(ctx, "engine run")
	}
	return e.stubEngine.Process(ctx, in)
}

func (e *loggingEngine) WithoutLogger() Engine {
	return &loggingEngine{}
}

// capturingHandler records slog records at or above level, or every record
// when level is nil.
type capturingHandler struct {
	mu      sync.Mutex
	level   slog.Leveler
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, l slog.Level) bool {
	return c.level == nil || l >= c.level.Level()
}

func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(string) slog.Handler      { return c }

func (c *capturingHandler) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.Message
	}
	return out
}

func (c *capturingHandler) count(msg string) int {
	n := 0
	for _, m := range c.messages() {
		if m == msg {
			n++
		}
	}
	return n
}

func (c *capturingHandler) attr(msg, key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Message != msg {
			continue
		}
		var v any
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				v = a.Value.Any()
				return false
			}
			return true
		})
		return v
	}
	return nil
}

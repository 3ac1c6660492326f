// Package phonemize turns English text into phone, syllable and word tokens
// by running it through an analysis engine (festival) and flattening the
// syllable trees the engine prints.
//
// The pipeline has three stages: each non-empty input line is sanitized
// into a quoted utterance, the engine analyzes the utterances, and the
// resulting trees are flattened with the configured separators. Phonemize
// can split the input into chunks and run the pipeline on them in parallel;
// results always come back in input order.
package phonemize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/super-leedc/phonemizer/internal/text"
)

// ErrInvalidJobs is returned when the requested job count is not positive.
var ErrInvalidJobs = errors.New("njobs must be a positive integer")

// Engine analyzes sanitized utterances, one per line, and returns one
// SylStructure tree per line. *festival.Festival implements it.
type Engine interface {
	Process(ctx context.Context, text string) (string, error)
}

// quietEngine is implemented by engines that can hand out a copy of
// themselves with logging disabled.
type quietEngine interface {
	WithoutLogger() Engine
}

// Phonemizer runs the sanitize, analyze and flatten pipeline. A Phonemizer
// is immutable once built and safe for concurrent use if its Engine is.
type Phonemizer struct {
	engine    Engine
	flattener Flattener
	log       *slog.Logger
}

// Option configures a Phonemizer.
type Option func(*Phonemizer)

// WithSeparator sets the word, syllable and phone separators.
func WithSeparator(sep Separator) Option {
	return func(p *Phonemizer) { p.flattener.Separator = sep }
}

// WithStripSeparator removes the trailing separator of every token when
// strip is true.
func WithStripSeparator(strip bool) Option {
	return func(p *Phonemizer) { p.flattener.StripSeparator = strip }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(p *Phonemizer) {
		if l == nil {
			l = discardLogger()
		}
		p.log = l
	}
}

// New returns a Phonemizer using engine with DefaultSeparator, trailing
// separators kept and logging disabled unless configured otherwise.
func New(engine Engine, opts ...Option) *Phonemizer {
	p := &Phonemizer{
		engine:    engine,
		flattener: Flattener{Separator: DefaultSeparator},
		log:       discardLogger(),
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// With returns a copy of p with opts applied.
func (p *Phonemizer) With(opts ...Option) *Phonemizer {
	c := *p
	for _, fn := range opts {
		fn(&c)
	}
	return &c
}

// Separator returns the configured separators.
func (p *Phonemizer) Separator() Separator { return p.flattener.Separator }

// StripSeparator reports whether trailing separators are removed.
func (p *Phonemizer) StripSeparator() bool { return p.flattener.StripSeparator }

// Phonemize returns the phonemized form of in, one entry per non-empty
// input line, with the same shape as in. With njobs > 1 the lines are split
// into chunks phonemized concurrently, each by its own engine run.
func (p *Phonemizer) Phonemize(ctx context.Context, in Lines, njobs int) (Lines, error) {
	if njobs < 1 {
		return Lines{}, fmt.Errorf("%w: got %d", ErrInvalidJobs, njobs)
	}

	lines := in.Slice()
	p.log.InfoContext(ctx, "phonemizing text",
		slog.Int("words", text.CountWords(lines)),
		slog.Int("lines", len(lines)),
	)

	var (
		out []string
		err error
	)
	if njobs == 1 {
		out, err = p.phonemize(ctx, text.JoinLines(lines))
	} else {
		out, err = p.dispatch(ctx, lines, njobs)
	}
	if err != nil {
		return Lines{}, err
	}

	return in.reshape(out), nil
}

// PhonemizeString phonemizes a multiline string and returns the result
// joined with newlines.
func (p *Phonemizer) PhonemizeString(ctx context.Context, s string, njobs int) (string, error) {
	out, err := p.Phonemize(ctx, FromString(s), njobs)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// PhonemizeLines phonemizes a sequence of lines.
func (p *Phonemizer) PhonemizeLines(ctx context.Context, lines []string, njobs int) ([]string, error) {
	out, err := p.Phonemize(ctx, FromSlice(lines), njobs)
	if err != nil {
		return nil, err
	}
	return out.Slice(), nil
}

// phonemize runs the three pipeline stages on a newline separated text.
func (p *Phonemizer) phonemize(ctx context.Context, input string) ([]string, error) {
	prepared := text.Preprocess(input)
	if prepared == "" {
		return nil, nil
	}

	raw, err := p.engine.Process(ctx, prepared)
	if err != nil {
		return nil, err
	}

	return p.flattener.Flatten(raw)
}

// withoutLogging returns a copy of p for chunk workers: no logger on the
// Phonemizer and none on the engine when it supports dropping it.
func (p *Phonemizer) withoutLogging() *Phonemizer {
	c := p.With(WithLogger(nil))
	if q, ok := p.engine.(quietEngine); ok {
		c.engine = q.WithoutLogger()
	}
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

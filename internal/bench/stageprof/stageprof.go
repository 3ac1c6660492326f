// Package stageprof times the sanitize, festival and flatten stages of a
// phonemize run separately, labelling each for pprof.
package stageprof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/super-leedc/phonemizer/internal/phonemize"
	"github.com/super-leedc/phonemizer/internal/text"
)

// Options controls a profiling session.
type Options struct {
	Runs       int
	Warmup     int
	CPUProfile string // path of a CPU profile to write, empty for none
}

// Timings holds the stage durations of one run, or their average.
type Timings struct {
	Sanitize time.Duration
	Engine   time.Duration
	Flatten  time.Duration
	Total    time.Duration
	Lines    int
}

// Report summarizes a profiling session.
type Report struct {
	Text   string
	Runs   int
	Warmup int
	Avg    Timings
}

// Profile runs input through the three stages opts.Warmup times unrecorded
// and then opts.Runs times recorded, returning the average stage timings.
func Profile(ctx context.Context, engine phonemize.Engine, f phonemize.Flattener, input string, opts Options) (Report, error) {
	if opts.Runs < 1 {
		return Report{}, errors.New("runs must be >= 1")
	}

	for i := range opts.Warmup {
		if _, err := runOnce(ctx, engine, f, input); err != nil {
			return Report{}, fmt.Errorf("warmup run %d failed: %w", i+1, err)
		}
	}

	if opts.CPUProfile != "" {
		fh, err := os.Create(opts.CPUProfile)
		if err != nil {
			return Report{}, fmt.Errorf("create cpuprofile: %w", err)
		}
		defer fh.Close()

		if err := pprof.StartCPUProfile(fh); err != nil {
			return Report{}, fmt.Errorf("start cpuprofile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var agg Timings
	for i := range opts.Runs {
		t, err := runOnce(ctx, engine, f, input)
		if err != nil {
			return Report{}, fmt.Errorf("profiled run %d failed: %w", i+1, err)
		}

		agg.Sanitize += t.Sanitize
		agg.Engine += t.Engine
		agg.Flatten += t.Flatten
		agg.Total += t.Total
		agg.Lines = t.Lines
	}

	n := time.Duration(opts.Runs)
	return Report{
		Text:   input,
		Runs:   opts.Runs,
		Warmup: opts.Warmup,
		Avg: Timings{
			Sanitize: agg.Sanitize / n,
			Engine:   agg.Engine / n,
			Flatten:  agg.Flatten / n,
			Total:    agg.Total / n,
			Lines:    agg.Lines,
		},
	}, nil
}

// Write prints r as key: value lines.
func (r Report) Write(w io.Writer) {
	ms := func(d time.Duration) float64 { return d.Seconds() * 1000 }

	fmt.Fprintf(w, "text: %q\n", r.Text)
	fmt.Fprintf(w, "runs: %d (warmup %d)\n", r.Runs, r.Warmup)
	fmt.Fprintf(w, "lines: %d\n", r.Avg.Lines)
	fmt.Fprintf(w, "avg_sanitize_ms: %.2f\n", ms(r.Avg.Sanitize))
	fmt.Fprintf(w, "avg_festival_ms: %.2f\n", ms(r.Avg.Engine))
	fmt.Fprintf(w, "avg_flatten_ms: %.2f\n", ms(r.Avg.Flatten))
	fmt.Fprintf(w, "avg_total_ms: %.2f\n", ms(r.Avg.Total))

	if total := ms(r.Avg.Total); total > 0 {
		fmt.Fprintf(w, "share_sanitize_pct: %.2f\n", 100*ms(r.Avg.Sanitize)/total)
		fmt.Fprintf(w, "share_festival_pct: %.2f\n", 100*ms(r.Avg.Engine)/total)
		fmt.Fprintf(w, "share_flatten_pct: %.2f\n", 100*ms(r.Avg.Flatten)/total)
	}
}

func runOnce(ctx context.Context, engine phonemize.Engine, f phonemize.Flattener, input string) (Timings, error) {
	var out Timings
	startTotal := time.Now()

	var prepared string
	pprof.Do(ctx, pprof.Labels("stage", "sanitize"), func(context.Context) {
		start := time.Now()
		prepared = text.Preprocess(input)
		out.Sanitize = time.Since(start)
	})

	if prepared == "" {
		return out, errors.New("no text left after sanitizing")
	}

	var (
		raw    string
		runErr error
	)
	pprof.Do(ctx, pprof.Labels("stage", "festival"), func(ctx context.Context) {
		start := time.Now()
		raw, runErr = engine.Process(ctx, prepared)
		out.Engine = time.Since(start)
	})

	if runErr != nil {
		return out, fmt.Errorf("run festival: %w", runErr)
	}

	var (
		lines   []string
		flatErr error
	)
	pprof.Do(ctx, pprof.Labels("stage", "flatten"), func(context.Context) {
		start := time.Now()
		lines, flatErr = f.Flatten(raw)
		out.Flatten = time.Since(start)
	})

	if flatErr != nil {
		return out, fmt.Errorf("flatten: %w", flatErr)
	}

	out.Total = time.Since(startTotal)
	out.Lines = len(lines)

	return out, nil
}

// Package bench provides benchmarking primitives for the phonemizer bench command.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and output size of a single phonemize run.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run (festival not yet in page cache)
	Duration time.Duration
	Lines    int
	Words    int
	WPS      float64 // input words per second
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the run durations of runs.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// RunFunc performs one phonemize run and returns the number of output lines.
type RunFunc func(ctx context.Context) (lines int, err error)

// Run calls fn runs times in sequence. words is the input word count used
// for throughput.
func Run(ctx context.Context, runs, words int, fn RunFunc) ([]RunResult, error) {
	if runs < 1 {
		return nil, errors.New("runs must be >= 1")
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		lines, err := fn(ctx)
		dur := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		results = append(results, RunResult{
			Index:    i,
			Cold:     i == 0,
			Duration: dur,
			Lines:    lines,
			Words:    words,
			WPS:      CalcWPS(words, dur),
		})
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Throughput helpers
// ---------------------------------------------------------------------------

// CalcWPS returns words / elapsed seconds.
// Returns 0 if elapsed is zero to avoid division by zero.
func CalcWPS(words int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(words) / elapsed.Seconds()
}

// MeanWPS averages the throughput of the warm runs. A single run counts
// even though it is cold.
func MeanWPS(runs []RunResult) float64 {
	var (
		sum float64
		n   int
	)
	for _, r := range runs {
		if r.Cold && len(runs) > 1 {
			continue
		}
		sum += r.WPS
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ---------------------------------------------------------------------------
// Throughput threshold gate
// ---------------------------------------------------------------------------

// CheckWPSThreshold returns an error if meanWPS < threshold.
// A threshold of 0 disables the gate.
func CheckWPSThreshold(meanWPS, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanWPS < threshold {
		return fmt.Errorf("mean throughput %.1f words/s below threshold %.1f", meanWPS, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %10s\n", "Run", "Cold", "MS", "Lines", "Words/s")
	fmt.Fprintln(sb, strings.Repeat("-", 46))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %8d  %10.1f\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			r.Lines,
			r.WPS,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 46))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", float64(stats.Min.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", float64(stats.Mean.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", float64(stats.Max.Milliseconds()))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Lines      int     `json:"lines"`
	Words      int     `json:"words"`
	WPS        float64 `json:"words_per_second"`
}

type jsonStats struct {
	MinMS   float64 `json:"min_ms"`
	MeanMS  float64 `json:"mean_ms"`
	MaxMS   float64 `json:"max_ms"`
	MeanWPS float64 `json:"mean_words_per_second"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:   float64(stats.Min.Milliseconds()),
			MeanMS:  float64(stats.Mean.Milliseconds()),
			MaxMS:   float64(stats.Max.Milliseconds()),
			MeanWPS: MeanWPS(runs),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			Lines:      r.Lines,
			Words:      r.Words,
			WPS:        r.WPS,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}

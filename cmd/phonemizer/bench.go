package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/super-leedc/phonemizer/internal/bench"
	"github.com/super-leedc/phonemizer/internal/bench/stageprof"
	"github.com/super-leedc/phonemizer/internal/phonemize"
	textpkg "github.com/super-leedc/phonemizer/internal/text"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		runs         int
		format       string
		wpsThreshold float64
		stages       bool
		warmup       int
		cpuprofile   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark phonemization latency and throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			// Per-run logging would dominate short runs.
			logger := slog.New(slog.DiscardHandler)
			f, err := newFestival(cfg, logger)
			if err != nil {
				return mapPhonemizeError(err)
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if stages {
				flattener := phonemize.Flattener{
					Separator:      separatorFromConfig(cfg),
					StripSeparator: cfg.Phonemize.StripSeparator,
				}
				report, err := stageprof.Profile(ctx, f, flattener, text, stageprof.Options{
					Runs:       runs,
					Warmup:     warmup,
					CPUProfile: cpuprofile,
				})
				if err != nil {
					return mapPhonemizeError(err)
				}
				report.Write(out)
				return nil
			}

			p := phonemize.New(f,
				phonemize.WithSeparator(separatorFromConfig(cfg)),
				phonemize.WithStripSeparator(cfg.Phonemize.StripSeparator),
				phonemize.WithLogger(logger),
			)
			words := textpkg.CountWords(textpkg.SplitLines(text))

			results, err := bench.Run(ctx, runs, words, func(ctx context.Context) (int, error) {
				lines, err := p.PhonemizeLines(ctx, textpkg.SplitLines(text), cfg.Phonemize.Jobs)
				return len(lines), err
			})
			if err != nil {
				return mapPhonemizeError(err)
			}

			stats := bench.ComputeStats(bench.Durations(results))

			switch format {
			case "json":
				bench.FormatJSON(results, stats, out)
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckWPSThreshold(bench.MeanWPS(results), wpsThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize for each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of phonemize runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&wpsThreshold, "min-wps", 0, "Exit non-zero if mean words/s falls below this value (0 = disabled)")
	cmd.Flags().BoolVar(&stages, "stages", false, "Report per-stage timings (sanitize, festival, flatten) instead of the run table")
	cmd.Flags().IntVar(&warmup, "warmup", 1, "Unrecorded warmup runs with --stages")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile with --stages")

	return cmd
}

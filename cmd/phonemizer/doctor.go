package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/super-leedc/phonemizer/internal/config"
	"github.com/super-leedc/phonemizer/internal/doctor"
	"github.com/super-leedc/phonemizer/internal/festival"
)

// doctorSample is phonemized end to end by the sample check.
const doctorSample = "hello world"

func newDoctorCmd() *cobra.Command {
	var sample bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local festival and script checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			dcfg := doctor.Config{
				FestivalVersion: func() (string, error) {
					return probeFestivalVersion(ctx, cfg.Festival.Binary)
				},
				ScriptPath: cfg.Festival.Script,
				TempDir:    cfg.Festival.TempDir,
			}
			if sample {
				dcfg.Sample = func() (string, error) {
					return runSample(ctx, cfg)
				}
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", true, "Phonemize a short sample text through festival")

	return cmd
}

// probeFestivalVersion resolves the festival binary and returns the output
// of `festival --version`.
func probeFestivalVersion(ctx context.Context, binary string) (string, error) {
	path, err := festival.Probe(binary)
	if err != nil {
		return "", err
	}
	return festival.Version(ctx, path)
}

func runSample(ctx context.Context, cfg config.Config) (string, error) {
	logger := slog.New(slog.DiscardHandler)

	p, err := newPhonemizer(cfg, logger)
	if err != nil {
		return "", err
	}
	return p.PhonemizeString(ctx, doctorSample, 1)
}

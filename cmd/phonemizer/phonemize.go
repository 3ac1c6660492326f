package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/super-leedc/phonemizer/internal/config"
	"github.com/super-leedc/phonemizer/internal/festival"
	"github.com/super-leedc/phonemizer/internal/phonemize"
	textpkg "github.com/super-leedc/phonemizer/internal/text"
)

func newPhonemizeCmd() *cobra.Command {
	var text string
	var out string

	cmd := &cobra.Command{
		Use:   "phonemizer [file]",
		Short: "Phonemize English text into words, syllables and phones using festival",
		Long: "Phonemize English text with festival. Text comes from --text, a file " +
			"argument or stdin; one phonemized line is printed per non-empty input line.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInput(text, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			p, err := newPhonemizer(cfg, slog.Default())
			if err != nil {
				return mapPhonemizeError(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := p.PhonemizeString(ctx, input, cfg.Phonemize.Jobs)
			if err != nil {
				return mapPhonemizeError(err)
			}

			return writeOutput(out, result, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize (if empty, read the file argument or stdin)")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output path ('-' for stdout)")

	return cmd
}

// newPhonemizer builds a festival-backed phonemizer from cfg.
func newPhonemizer(cfg config.Config, logger *slog.Logger) (*phonemize.Phonemizer, error) {
	f, err := newFestival(cfg, logger)
	if err != nil {
		return nil, err
	}

	return phonemize.New(f,
		phonemize.WithSeparator(separatorFromConfig(cfg)),
		phonemize.WithStripSeparator(cfg.Phonemize.StripSeparator),
		phonemize.WithLogger(logger),
	), nil
}

func newFestival(cfg config.Config, logger *slog.Logger) (*festival.Festival, error) {
	return festival.New(festival.Options{
		Binary:  cfg.Festival.Binary,
		Script:  cfg.Festival.Script,
		Timeout: time.Duration(cfg.Festival.Timeout) * time.Second,
		TempDir: cfg.Festival.TempDir,
		Logger:  logger,
	})
}

func separatorFromConfig(cfg config.Config) phonemize.Separator {
	return phonemize.Separator{
		Word:     cfg.Phonemize.WordSeparator,
		Syllable: cfg.Phonemize.SyllableSeparator,
		Phone:    cfg.Phonemize.PhoneSeparator,
	}
}

// readInput returns the text to phonemize: --text if set, else the file
// argument ("-" reads stdin), else stdin.
func readInput(text string, args []string, stdin io.Reader) (string, error) {
	raw := text
	if raw == "" {
		var (
			b   []byte
			err error
		)
		switch {
		case len(args) > 0 && args[0] != "-":
			b, err = os.ReadFile(args[0])
			if err != nil {
				return "", fmt.Errorf("read input: %w", err)
			}
		default:
			b, err = io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("read stdin: %w", err)
			}
		}
		raw = string(b)
	}

	input, err := textpkg.Normalize(raw)
	if errors.Is(err, textpkg.ErrEmptyText) {
		return "", errors.New("either provide --text, a file argument or pipe text on stdin")
	}
	return input, err
}

// writeOutput writes result followed by a newline to outPath, or to stdout
// when outPath is "-". An empty result writes nothing.
func writeOutput(outPath, result string, stdout io.Writer) error {
	data := []byte(result)
	if result != "" {
		data = append(data, '\n')
	}

	if outPath == "-" || outPath == "" {
		if stdout == nil {
			return errors.New("stdout writer is nil")
		}
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func mapPhonemizeError(err error) error {
	switch {
	case errors.Is(err, festival.ErrNotFound):
		return fmt.Errorf("festival executable not found; install festival or set --festival-binary or PHONEMIZER_FESTIVAL_BINARY: %w", err)
	case errors.Is(err, festival.ErrScriptTemplate):
		return fmt.Errorf("check --festival-script: %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("interrupted: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("festival did not finish in time; raise --festival-timeout: %w", err)
	case errors.Is(err, festival.ErrInvocation):
		return fmt.Errorf("festival returned an error; rerun with --log-level debug to see the command: %w", err)
	case errors.Is(err, phonemize.ErrMalformedTree):
		return fmt.Errorf("unexpected festival output; the script must print SylStructure trees: %w", err)
	}
	return err
}

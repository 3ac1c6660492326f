// Package festival runs the festival text-to-speech engine in batch mode
// and returns the SylStructure trees it prints for each utterance.
package festival

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/super-leedc/phonemizer/internal/phonemize"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// festival children after the process itself was killed.
const waitDelay = 2 * time.Second

// Options configures a Festival engine.
type Options struct {
	// Binary is the festival executable name or path (defaults to "festival").
	Binary string

	// Script is the path of a script template. Empty uses the bundled one.
	Script string

	// Timeout bounds a single festival run. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration

	// TempDir is where input and script files are written. Empty uses
	// os.TempDir.
	TempDir string

	// Logger receives debug messages. Nil discards them.
	Logger *slog.Logger
}

// Festival invokes the festival binary. It is safe for concurrent use: each
// call owns its temporary files and subprocess.
type Festival struct {
	path    string
	script  string
	timeout time.Duration
	tempDir string
	log     *slog.Logger
}

// New checks that the festival binary is available and loads the script
// template. Errors wrap ErrNotFound or ErrScriptTemplate.
func New(opts Options) (*Festival, error) {
	path, err := Probe(opts.Binary)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	scriptName := opts.Script
	if scriptName == "" {
		scriptName = "<bundled>"
	}
	logger.Debug("loading script", slog.String("script", scriptName))

	tmpl, err := LoadScript(opts.Script)
	if err != nil {
		return nil, err
	}

	return &Festival{
		path:    path,
		script:  tmpl,
		timeout: opts.Timeout,
		tempDir: opts.TempDir,
		log:     logger,
	}, nil
}

// WithoutLogger returns a copy of f that discards its log records. The
// chunk dispatcher hands it to workers.
func (f *Festival) WithoutLogger() phonemize.Engine {
	c := *f
	c.log = discardLogger()
	return &c
}

// Process writes text (already sanitized, one quoted utterance per line) to
// a temporary file, runs the script on it and returns festival's stdout
// decoded as latin-1. Temporary files are removed before returning.
func (f *Festival) Process(ctx context.Context, text string) (string, error) {
	data, err := f.writeTemp("phonemizer-*.txt", text)
	if err != nil {
		return "", err
	}
	defer os.Remove(data)

	scm, err := f.writeTemp("phonemizer-*.scm", fillScript(f.script, data))
	if err != nil {
		return "", err
	}
	defer os.Remove(scm)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.path, "-b", scm)
	cmd.WaitDelay = waitDelay
	f.log.Debug("running festival", slog.String("cmd", cmd.String()))

	var out bytes.Buffer
	cmd.Stdout = &out
	// Festival reports wave synthesis warnings such as
	// "UniSyn: using default diphone ax-ax for y-pau" on stderr.
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrInvocation, ctxErr)
		}
		return "", fmt.Errorf("%w: %w", ErrInvocation, err)
	}

	return decodeOutput(out.Bytes())
}

func (f *Festival) writeTemp(pattern, content string) (string, error) {
	fh, err := os.CreateTemp(f.tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := fh.Name()

	if _, err := io.WriteString(fh, content); err != nil {
		_ = fh.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

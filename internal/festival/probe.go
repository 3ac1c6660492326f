package festival

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "festival"

var (
	lookPath = exec.LookPath

	probeMu    sync.Mutex
	probeCache = map[string]probeResult{}
)

type probeResult struct {
	path string
	err  error
}

// Probe resolves binary on PATH (or as a path) and returns its location.
// Results are cached for the lifetime of the process. A missing binary
// yields an error wrapping ErrNotFound.
func Probe(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}

	probeMu.Lock()
	defer probeMu.Unlock()

	if r, ok := probeCache[binary]; ok {
		return r.path, r.err
	}

	path, err := lookPath(binary)
	if err != nil {
		err = fmt.Errorf("%w: %q: %w", ErrNotFound, binary, err)
	}
	probeCache[binary] = probeResult{path: path, err: err}
	return path, err
}

// Version runs `<binary> --version` and returns its trimmed output.
func Version(ctx context.Context, binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", binary, err)
	}
	return strings.TrimSpace(string(out)), nil
}

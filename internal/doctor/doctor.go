// Package doctor provides environment preflight checks for phonemizer.
package doctor

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/super-leedc/phonemizer/internal/festival"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// MinFestivalMajor is the oldest festival major version known to print
// SylStructure trees in the expected layout.
const MinFestivalMajor = 2

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// FestivalVersion returns the output of `festival --version`.
	FestivalVersion VersionFunc
	// ScriptPath is the script template to validate. Empty checks the
	// bundled script.
	ScriptPath string
	// TempDir must be writable for festival input files. Empty checks
	// os.TempDir.
	TempDir string
	// Sample phonemizes a short text end to end. Nil skips the check.
	Sample func() (string, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- festival binary --------------------------------------------------
	festivalOK := false
	if cfg.FestivalVersion == nil {
		res.fail("festival binary: no version probe configured")
		fmt.Fprintf(w, "%s festival binary: not checked\n", FailMark)
	} else {
		ver, err := cfg.FestivalVersion()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("festival binary: %v", err))
			fmt.Fprintf(w, "%s festival binary: not found (%v)\n", FailMark, err)
		default:
			if verErr := checkFestivalVersion(ver); verErr != nil {
				res.fail(fmt.Sprintf("festival version: %v", verErr))
				fmt.Fprintf(w, "%s festival version %q: %v\n", FailMark, ver, verErr)
			} else {
				festivalOK = true
				fmt.Fprintf(w, "%s festival binary: %s\n", PassMark, ver)
			}
		}
	}

	// ---- script template --------------------------------------------------
	name := cfg.ScriptPath
	if name == "" {
		name = "bundled"
	}
	if _, err := festival.LoadScript(cfg.ScriptPath); err != nil {
		res.fail(fmt.Sprintf("script template %s: %v", name, err))
		fmt.Fprintf(w, "%s script template %s: %v\n", FailMark, name, err)
	} else {
		fmt.Fprintf(w, "%s script template: %s\n", PassMark, name)
	}

	// ---- temp dir ---------------------------------------------------------
	if err := checkWritable(cfg.TempDir); err != nil {
		res.fail(fmt.Sprintf("temp dir: %v", err))
		fmt.Fprintf(w, "%s temp dir: %v\n", FailMark, err)
	} else {
		dir := cfg.TempDir
		if dir == "" {
			dir = os.TempDir()
		}
		fmt.Fprintf(w, "%s temp dir: %s\n", PassMark, dir)
	}

	// ---- sample run -------------------------------------------------------
	switch {
	case cfg.Sample == nil:
	case !festivalOK:
		fmt.Fprintf(w, "%s sample phonemization: skipped (festival unavailable)\n", FailMark)
	default:
		out, err := cfg.Sample()
		if err != nil {
			res.fail(fmt.Sprintf("sample phonemization: %v", err))
			fmt.Fprintf(w, "%s sample phonemization: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s sample phonemization: %s\n", PassMark, out)
		}
	}

	return res
}

// versionPattern finds the first dotted version number in `festival
// --version` output, e.g. "Festival Speech Synthesis System: 2.5.0:release".
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// checkFestivalVersion returns an error if ver names a festival older than
// MinFestivalMajor.
func checkFestivalVersion(ver string) error {
	major, _, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major < MinFestivalMajor {
		return fmt.Errorf("requires festival >=%d.0, got %d", MinFestivalMajor, major)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	m := versionPattern.FindStringSubmatch(ver)
	if m == nil {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, "phonemizer-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

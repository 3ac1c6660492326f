// Package testutil provides skip helpers and fake festival executables for
// tests.
//
// The fakes are small /bin/sh scripts that honour the `festival -b <script>`
// calling convention, so the invoker can be exercised end to end on machines
// without festival installed.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    bin := testutil.TreeFestival(t)
//	    f, err := festival.New(festival.Options{Binary: bin})
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

// ScriptInputPath is a shell snippet that extracts the input file path from
// the script passed as $2 into $data.
const ScriptInputPath = `data=$(sed -n 's/.*(fopen "\([^"]*\)".*/\1/p' "$2")`

// TreeFestivalBody emits, for every utterance of the input file, a
// SylStructure tree with one syllable per word and one phone per letter.
// Whitespace-only utterances produce the (nil nil nil) sentinel.
const TreeFestivalBody = `[ "$1" = "-b" ] || exit 2
` + ScriptInputPath + `
awk '{
  gsub(/"/, "")
  if (NF == 0) { print "(nil nil nil)"; next }
  out = "("
  for (i = 1; i <= NF; i++) {
    w = $i
    s = "((\"" w "\" ((name " w "))) ((\"syl\" ((stress 0)))"
    for (j = 1; j <= length(w); j++) {
      c = substr(w, j, 1)
      s = s " ((\"" c "\" ((name " c "))))"
    }
    out = out s "))"
  }
  print out ")"
}' "$data"
`

// RequireFestival skips the test if the festival binary is not found in PATH
// or at the path given by the PHONEMIZER_FESTIVAL_BINARY environment variable.
func RequireFestival(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("PHONEMIZER_FESTIVAL_BINARY")
	if exe == "" {
		exe = "festival"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("festival binary not available (%q not in PATH); set PHONEMIZER_FESTIVAL_BINARY to override", exe)
	}
	return path
}

// FakeFestival writes an executable shell script with the given body into a
// fresh temporary directory and returns its path. The test is skipped on
// platforms without /bin/sh.
func FakeFestival(tb testing.TB, body string) string {
	tb.Helper()

	if runtime.GOOS == "windows" {
		tb.Skip("fake festival scripts need /bin/sh")
	}

	path := filepath.Join(tb.TempDir(), "festival")
	// #nosec G306 -- the fake must be executable.
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		tb.Fatalf("write fake festival: %v", err)
	}
	return path
}

// EchoFestival returns a fake festival that prints the contents of the input
// file referenced by its script.
func EchoFestival(tb testing.TB) string {
	tb.Helper()
	return FakeFestival(tb, `[ "$1" = "-b" ] || exit 2
`+ScriptInputPath+`
cat "$data"
`)
}

// TreeFestival returns a fake festival running TreeFestivalBody.
func TreeFestival(tb testing.TB) string {
	tb.Helper()
	return FakeFestival(tb, TreeFestivalBody)
}

// FailingFestival returns a fake festival that writes to stderr and exits
// with the given status.
func FailingFestival(tb testing.TB, status int) string {
	tb.Helper()
	return FakeFestival(tb, "echo 'SIOD ERROR: unbound variable' >&2\nexit "+strconv.Itoa(status)+"\n")
}


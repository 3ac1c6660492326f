package festival

import "errors"

var (
	// ErrNotFound is returned when the festival binary cannot be resolved
	// on PATH. It is a configuration error: nothing is phonemized.
	ErrNotFound = errors.New("festival not installed on your system")

	// ErrScriptTemplate is returned when a script template cannot be read
	// or does not hold exactly one input path placeholder.
	ErrScriptTemplate = errors.New("invalid festival script template")

	// ErrInvocation is returned when the festival process cannot be started,
	// exits non-zero or is killed. Its stderr is discarded.
	ErrInvocation = errors.New("festival invocation failed")

	// ErrDecode is returned when festival output is not valid latin-1.
	ErrDecode = errors.New("cannot decode festival output")
)

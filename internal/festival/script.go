package festival

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// Placeholder marks where the input file path goes in a script template.
const Placeholder = "{}"

//go:embed phonemize.scm
var defaultScript string

// DefaultScript returns the bundled script template.
func DefaultScript() string { return defaultScript }

// LoadScript reads a script template from path, or returns the bundled
// template when path is empty. The template must hold exactly one
// Placeholder.
func LoadScript(path string) (string, error) {
	tmpl := defaultScript
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrScriptTemplate, err)
		}
		tmpl = string(b)
	}

	if err := ValidateScript(tmpl); err != nil {
		return "", err
	}
	return tmpl, nil
}

// ValidateScript checks that tmpl holds exactly one Placeholder.
func ValidateScript(tmpl string) error {
	if n := strings.Count(tmpl, Placeholder); n != 1 {
		return fmt.Errorf("%w: want exactly one %s placeholder, found %d", ErrScriptTemplate, Placeholder, n)
	}
	return nil
}

func fillScript(tmpl, inputPath string) string {
	return strings.Replace(tmpl, Placeholder, inputPath, 1)
}

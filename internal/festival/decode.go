package festival

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// decodeOutput converts festival stdout to a Go string. Festival writes
// ISO-8859-1, not UTF-8, so bytes above 0x7f are mapped as latin-1.
func decodeOutput(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(out), nil
}

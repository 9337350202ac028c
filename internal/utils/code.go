package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NextCode returns the code following latest, e.g. DEP001 -> DEP002.
// An empty latest restarts the sequence at 1. Numbers are zero-padded to
// digits and simply grow wider once they overflow it.
func NextCode(prefix, latest string, digits int) (string, error) {
	if latest == "" {
		return fmt.Sprintf("%s%0*d", prefix, digits, 1), nil
	}

	if !strings.HasPrefix(latest, prefix) {
		return "", fmt.Errorf("code %q does not start with %q", latest, prefix)
	}

	n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil || n < 0 {
		return "", fmt.Errorf("code %q has no numeric suffix", latest)
	}

	return fmt.Sprintf("%s%0*d", prefix, digits, n+1), nil
}

package sprite

import (
	"fmt"
	"regexp"
	"strings"
)

var outputBasePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// strippedPrefixes are the type prefixes removed from output names.
var strippedPrefixes = map[string]bool{"npc": true, "i": true, "w": true, "pj": true}

// OutputBase strips a recognized type prefix from the folder name. Names
// without one, or with nothing after it, pass through trimmed.
func OutputBase(name string) string {
	trimmed := strings.TrimSpace(name)
	prefix, rest, ok := strings.Cut(trimmed, "_")
	if !ok {
		return trimmed
	}
	lower := strings.ToLower(prefix)
	if strippedPrefixes[lower] || (len(lower) > 1 && lower[0] == 'e' && isDigits(lower[1:])) {
		if rest = strings.TrimSpace(rest); rest != "" {
			return rest
		}
	}
	return trimmed
}

// OutputName returns the sheet file name for an entity folder.
func OutputName(name string) (string, error) {
	base := OutputBase(name)
	if base == "" {
		return "", fmt.Errorf("%w: derived from %q", ErrInvalidOutputName, name)
	}
	lowered := strings.ToLower(base)
	for i := 0; i < len(lowered); i++ {
		if lowered[i] > 0x7f {
			return "", fmt.Errorf("%w: '%s' in %s must be ASCII lowercase", ErrInvalidOutputName, base, name)
		}
	}
	if !outputBasePattern.MatchString(lowered) {
		return "", fmt.Errorf("%w: '%s' in %s, use a-z, 0-9, underscore only", ErrInvalidOutputName, base, name)
	}
	return lowered + ".png", nil
}

package utils

import (
	"strings"
	"unicode"
)

// NormalizePlate returns the canonical registry key of a plate: uppercase,
// without whitespace or hyphens. "x7i-962" and "X7I 962" share one key.
func NormalizePlate(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, strings.TrimSpace(raw))
}

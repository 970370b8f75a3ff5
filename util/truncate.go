package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes returns at most maxRunes runes of s, cutting on a rune
// boundary.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// SameFold reports whether a and b match ignoring case and surrounding
// whitespace.
func SameFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

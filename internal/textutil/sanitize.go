// Package textutil provides text sanitization for filenames and object
// store keys.
package textutil

import "strings"

// SanitizeKey keeps object-key-safe characters and replaces the rest
// with underscores. Letters, digits, dots, underscores, and hyphens
// survive; everything else (spaces, slashes, accented characters)
// becomes '_' so store identifiers and driver names cannot escape
// their key segment.
func SanitizeKey(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

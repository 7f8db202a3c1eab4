package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName trims surrounding whitespace. Names are not unique and keep their case.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}

package parsers

import "strings"

// Encoder converts a suffix to its ASCII-compatible form.
type Encoder interface {
	ToASCII(s string) (string, error)
}

// normalizeSuffix trims a raw list entry and removes a leading wildcard marker,
// so "*.ck" becomes "ck". Trailing dots are dropped as in canonical DNS names.
func normalizeSuffix(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimPrefix(s, "*.")
	return strings.TrimRight(s, ".")
}

// isComment reports whether a trimmed line is a list comment.
func isComment(line string) bool {
	return strings.HasPrefix(line, "//")
}

// isException reports whether a line carries the "!" exception marker.
// Exception rules are dropped rather than subtracted from their wildcard parent.
func isException(line string) bool {
	return strings.Contains(line, "!")
}

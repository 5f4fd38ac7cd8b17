package domain

import "strings"

// ScrubHostname removes every character outside [a-zA-Z0-9-.] from s.
// ok is false when at least one character was removed.
func ScrubHostname(s string) (cleaned string, ok bool) {
	ok = true
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if isHostnameByte(s[i]) {
			b.WriteByte(s[i])
			continue
		}
		ok = false
	}
	if ok {
		return s, true
	}
	return b.String(), false
}

func isHostnameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.':
		return true
	default:
		return false
	}
}

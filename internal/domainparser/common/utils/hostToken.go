package utils

import (
	"regexp"
	"strings"
)

// schemePrefix matches the URL schemes the decomposer strips, followed by two or more slashes.
var schemePrefix = regexp.MustCompile(`^(http|https|ftp|ftps|news|ssh|sftp|gopher):/{2,}`)

// HostToken reduces raw input to the token the decomposer matches against:
// - Trimmed of surrounding whitespace and lower-cased
// - Leading scheme ("https://", "ftp:///") removed
// - Everything from the first remaining '/' dropped
//
// Input that starts with '/' after the scheme yields an empty token.
func HostToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if loc := schemePrefix.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

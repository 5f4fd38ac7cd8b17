// Package idna converts domain strings between their unicode and ASCII-compatible
// (punycode) forms.
package idna

import (
	"fmt"

	"golang.org/x/net/idna"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// Normalizer encodes and decodes domain strings label by label.
//
// It uses the raw punycode profile: labels are converted without mapping or
// validation, so malformed tokens such as "not a domain!!" pass through unchanged
// and are left to the hostname scrub. Only undecodable "xn--" labels fail.
type Normalizer struct {
	profile *idna.Profile
}

// New returns a Normalizer backed by golang.org/x/net/idna.
func New() *Normalizer {
	return &Normalizer{profile: idna.Punycode}
}

// ToASCII returns the ASCII-compatible form of s.
func (n *Normalizer) ToASCII(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	out, err := n.profile.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", domain.ErrEncoding, s, err)
	}
	return out, nil
}

// ToUnicode returns the human-readable form of s.
func (n *Normalizer) ToUnicode(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	out, err := n.profile.ToUnicode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", domain.ErrEncoding, s, err)
	}
	return out, nil
}

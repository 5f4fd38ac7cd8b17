package utils

import "golang.org/x/net/publicsuffix"

// ReferenceSuffix returns the public suffix of host according to the list compiled
// into golang.org/x/net/publicsuffix, and whether it is ICANN-managed.
// It is used to compare the live catalog against a known-good snapshot.
func ReferenceSuffix(host string) (suffix string, icann bool) {
	host = trimDots(host)
	if host == "" {
		return "", false
	}
	return publicsuffix.PublicSuffix(host)
}

// ReferenceApex returns the registrable domain (eTLD+1) of host, or host itself
// when it has none.
func ReferenceApex(host string) string {
	host = trimDots(host)
	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return apex
}

func trimDots(s string) string {
	for len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

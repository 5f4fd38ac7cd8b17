package domain

import "errors"

// Error kinds raised by the catalog lifecycle and the decomposer.
// Causes are wrapped with fmt.Errorf("%w: %w", kind, cause) and matched with errors.Is.
var (
	// ErrCacheUnavailable means the persisted catalog is absent or unreadable.
	// Callers recover by ingesting from the source.
	ErrCacheUnavailable = errors.New("suffix cache unavailable")

	// ErrSourceUnreachable means the remote suffix list could not be obtained.
	// The previously loaded catalog stays in use.
	ErrSourceUnreachable = errors.New("suffix source unreachable")

	// ErrMalformedSource means the suffix list lacks the ICANN section delimiters.
	ErrMalformedSource = errors.New("malformed suffix source")

	// ErrCacheWrite means the catalog could not be persisted.
	ErrCacheWrite = errors.New("could not write suffix cache")

	// ErrEncoding is returned when a string cannot be converted to or from its ASCII-compatible form.
	ErrEncoding = errors.New("domain encoding failed")

	// ErrUnparsable is returned when no label/suffix classification applies.
	ErrUnparsable = errors.New("unparsable domain name")
)

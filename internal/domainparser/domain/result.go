package domain

// MaxLabelLength is the longest label (in ASCII-compatible form) the decomposer accepts.
const MaxLabelLength = 63

// ParseResult is the decomposition of one input string.
// Pure value type; a failed parse in capture mode carries only Error.
type ParseResult struct {
	Label         string `json:"label"`          // decoded (unicode) label
	LabelEncoded  string `json:"label_encoded"`  // ASCII-compatible label
	Suffix        string `json:"suffix"`         // decoded suffix
	SuffixEncoded string `json:"suffix_encoded"` // ASCII-compatible suffix
	Group         string `json:"group"`          // matched suffix group, empty when none matched
	ValidHostname bool   `json:"valid_hostname"`
	Error         string `json:"error,omitempty"`
}

// FailedResult returns a result carrying only the error description.
func FailedResult(err error) ParseResult {
	if err == nil {
		return ParseResult{}
	}
	return ParseResult{Error: err.Error()}
}

// Failed reports whether the result describes a captured error.
func (r ParseResult) Failed() bool { return r.Error != "" }

// Domain joins the encoded label and suffix, e.g. "example.co.uk".
// Either side may be empty, in which case the other is returned alone.
func (r ParseResult) Domain() string {
	switch {
	case r.LabelEncoded == "":
		return r.SuffixEncoded
	case r.SuffixEncoded == "":
		return r.LabelEncoded
	default:
		return r.LabelEncoded + "." + r.SuffixEncoded
	}
}

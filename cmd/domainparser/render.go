package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// reference is the decomposition according to golang.org/x/net/publicsuffix.
type reference struct {
	Suffix string `json:"suffix"`
	ICANN  bool   `json:"icann"`
	Apex   string `json:"apex"`
}

type renderer interface {
	result(input string, res domain.ParseResult, ref *reference) error
	valid(input string, ok bool) error
	flush() error
}

func newRenderer(format string, w io.Writer) (renderer, error) {
	switch format {
	case "text":
		return &textRenderer{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}, nil
	case "json":
		return &jsonRenderer{enc: json.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// textRenderer writes one aligned row per input.
type textRenderer struct {
	tw *tabwriter.Writer
}

func (r *textRenderer) result(input string, res domain.ParseResult, ref *reference) error {
	if res.Failed() {
		_, err := fmt.Fprintf(r.tw, "%s\terror: %s\n", input, res.Error)
		return err
	}
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", input, orDash(res.Label), orDash(res.Suffix), orDash(res.Group), validWord(res.ValidHostname))
	if res.LabelEncoded != res.Label || res.SuffixEncoded != res.Suffix {
		line += "\t(" + res.Domain() + ")"
	}
	if ref != nil {
		line += "\treference=" + orDash(ref.Suffix)
	}
	_, err := fmt.Fprintln(r.tw, line)
	return err
}

func (r *textRenderer) valid(input string, ok bool) error {
	_, err := fmt.Fprintf(r.tw, "%s\t%s\n", input, validWord(ok))
	return err
}

func (r *textRenderer) flush() error { return r.tw.Flush() }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func validWord(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}

// jsonRenderer writes one JSON object per line.
type jsonRenderer struct {
	enc *json.Encoder
}

type jsonResult struct {
	Input string `json:"input"`
	domain.ParseResult
	Reference *reference `json:"reference,omitempty"`
}

func (r *jsonRenderer) result(input string, res domain.ParseResult, ref *reference) error {
	return r.enc.Encode(jsonResult{Input: input, ParseResult: res, Reference: ref})
}

func (r *jsonRenderer) valid(input string, ok bool) error {
	return r.enc.Encode(struct {
		Input string `json:"input"`
		Valid bool   `json:"valid"`
	}{input, ok})
}

func (r *jsonRenderer) flush() error { return nil }

package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	logpkg "github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/domain"
)

const (
	beginICANN = "BEGIN ICANN DOMAINS"
	endICANN   = "END ICANN DOMAINS"
)

// ParseSuffixList parses the ICANN section of a public suffix list document into
// suffix groups keyed by each suffix's top-level label.
//
// Behavior:
// - Only lines between the BEGIN/END ICANN DOMAINS markers are considered
// - Empty lines and "//" comments are skipped
// - Lines containing "!" (exception rules) are dropped entirely
// - A leading "*." wildcard is stripped to its base suffix
// - Entries are encoded to ASCII-compatible form; entries that fail to encode are skipped
// - Groups appear in order of first occurrence; duplicates are kept for the caller to finalize
//
// It returns domain.ErrMalformedSource when either marker is missing.
func ParseSuffixList(r io.Reader, enc Encoder, logger logpkg.Logger) ([]domain.SuffixGroup, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		groups   []domain.SuffixGroup
		index    = make(map[string]int)
		inICANN  bool
		sawBegin bool
		sawEnd   bool
		lineNum  int
		count    int
	)

	logger.Debug(nil, "Parsing suffix list")
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if !inICANN {
			if !sawBegin && strings.Contains(line, beginICANN) {
				inICANN, sawBegin = true, true
			}
			continue
		}
		if strings.Contains(line, endICANN) {
			sawEnd = true
			break
		}

		if line == "" || isComment(line) {
			continue
		}
		if isException(line) {
			logger.Debug(map[string]any{"line": lineNum, "raw": line}, "Skipping exception rule")
			continue
		}

		raw := normalizeSuffix(line)
		if raw == "" {
			continue
		}
		suffix, err := enc.ToASCII(raw)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw, "error": err}, "Skipping unencodable suffix")
			continue
		}

		top := domain.TopLabel(suffix)
		i, ok := index[top]
		if !ok {
			i = len(groups)
			index[top] = i
			groups = append(groups, domain.SuffixGroup{Name: top})
		}
		groups[i].Suffixes = append(groups[i].Suffixes, suffix)
		count++
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"error": err}, "Error scanning suffix list")
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSource, err)
	}
	if !sawBegin || !sawEnd {
		return nil, fmt.Errorf("%w: missing %q/%q markers", domain.ErrMalformedSource, beginICANN, endICANN)
	}

	logger.Debug(map[string]any{"groups": len(groups), "suffixes": count}, "Suffix list parsed")
	return groups, nil
}

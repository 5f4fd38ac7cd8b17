package parsers

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	logpkg "github.com/haukened/domainparser/internal/domainparser/common/log"
)

//go:embed supplemental.yaml
var bundledSupplemental []byte

// bundledVersion is the modification time reported for the bundled list.
// Bump it whenever supplemental.yaml changes so cached catalogs are re-ingested.
var bundledVersion = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

// SupplementalList is a hand-curated mapping of group name to extra suffixes.
// It is either the list bundled with the binary or an operator-provided file.
type SupplementalList struct {
	path   string
	logger logpkg.Logger
}

// NewBundledSupplemental returns the list compiled into the binary.
func NewBundledSupplemental(logger logpkg.Logger) *SupplementalList {
	return NewFileSupplemental("", logger)
}

// NewFileSupplemental returns a list read from path (json, yaml/yml or toml).
// An empty path selects the bundled list.
func NewFileSupplemental(path string, logger logpkg.Logger) *SupplementalList {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &SupplementalList{path: path, logger: logger}
}

// Source identifies the list for logging.
func (s *SupplementalList) Source() string {
	if s.path == "" {
		return "bundled"
	}
	return s.path
}

// ModTime reports when the list last changed.
func (s *SupplementalList) ModTime() (time.Time, error) {
	if s.path == "" {
		return bundledVersion, nil
	}
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat supplemental list %s: %w", s.path, err)
	}
	return fi.ModTime(), nil
}

// Groups loads the mapping. Suffixes are normalized like list entries; keys that are
// not single labels and values that are not strings are skipped.
func (s *SupplementalList) Groups() (map[string][]string, error) {
	k := koanf.New(".")
	if s.path == "" {
		if err := k.Load(rawbytes.Provider(bundledSupplemental), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load bundled supplemental list: %w", err)
		}
	} else {
		parser, err := parserFor(s.path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(s.path), parser); err != nil {
			return nil, fmt.Errorf("failed to load supplemental list %s: %w", s.path, err)
		}
	}

	raw := k.Raw()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]string, len(raw))
	for _, name := range names {
		group := strings.ToLower(strings.TrimSpace(name))
		values := toStringValues(raw[name])
		if group == "" || len(values) == 0 {
			s.logger.Debug(map[string]any{"source": s.Source(), "group": name}, "Skipping supplemental group")
			continue
		}
		for _, v := range values {
			if sfx := normalizeSuffix(v); sfx != "" {
				out[group] = append(out[group], sfx)
			}
		}
	}
	return out, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported supplemental list format: %s", path)
	}
}

// toStringValues converts a raw koanf value (string or []any of strings) into
// non-empty strings. Anything else (such as a nested map produced by a dotted key)
// yields nil.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

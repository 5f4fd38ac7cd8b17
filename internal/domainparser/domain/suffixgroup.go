package domain

import (
	"slices"
	"sort"
	"strings"
)

// SuffixGroup is a named, ordered set of public suffixes.
//
// Notes:
// - Name is usually the top-level label shared by every suffix ("uk" for "co.uk").
// - Suffixes are ASCII-compatible and, once finalized, ordered by non-increasing length
//   so the most specific suffix of a group is always tried first.
type SuffixGroup struct {
	Name     string
	Suffixes []string
}

// TopLabel returns the right-most label of name, or name itself when it has no dot.
func TopLabel(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// finalize removes duplicate suffixes (keeping the first occurrence) and stable-sorts
// the remainder longest first. The receiver is not modified.
func (g SuffixGroup) finalize() SuffixGroup {
	seen := make(map[string]struct{}, len(g.Suffixes))
	out := make([]string, 0, len(g.Suffixes))
	for _, s := range g.Suffixes {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return len(b) - len(a)
	})
	return SuffixGroup{Name: g.Name, Suffixes: out}
}

// IsOrdered reports whether the group's suffixes are non-increasing in length.
func (g SuffixGroup) IsOrdered() bool {
	for i := 1; i < len(g.Suffixes); i++ {
		if len(g.Suffixes[i]) > len(g.Suffixes[i-1]) {
			return false
		}
	}
	return true
}

// MergeGroups appends the supplemental mapping to the parsed groups.
// Suffixes for an existing group are appended to it; groups only present in extra are
// appended after the parsed ones in sorted name order so the result is deterministic.
// Duplicates are kept; NewCatalog removes them.
func MergeGroups(parsed []SuffixGroup, extra map[string][]string) []SuffixGroup {
	out := make([]SuffixGroup, 0, len(parsed)+len(extra))
	index := make(map[string]int, len(parsed))
	for _, g := range parsed {
		if i, ok := index[g.Name]; ok {
			out[i].Suffixes = append(out[i].Suffixes, g.Suffixes...)
			continue
		}
		index[g.Name] = len(out)
		out = append(out, SuffixGroup{Name: g.Name, Suffixes: slices.Clone(g.Suffixes)})
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if i, ok := index[name]; ok {
			out[i].Suffixes = append(out[i].Suffixes, extra[name]...)
			continue
		}
		index[name] = len(out)
		out = append(out, SuffixGroup{Name: name, Suffixes: slices.Clone(extra[name])})
	}
	return out
}

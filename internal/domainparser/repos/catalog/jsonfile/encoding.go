package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// cacheDocument is the on-disk layout:
//
//	{ "timestamp": 1700000000, "content": { "uk": ["co.uk", "uk"], ... } }
type cacheDocument struct {
	Timestamp int64        `json:"timestamp"`
	Content   orderedGroups `json:"content"`
}

// orderedGroups marshals as a JSON object whose keys keep the catalog's group order.
type orderedGroups []domain.SuffixGroup

func (g orderedGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, grp := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(grp.Name)
		if err != nil {
			return nil, err
		}
		suffixes := grp.Suffixes
		if suffixes == nil {
			suffixes = []string{}
		}
		list, err := json.Marshal(suffixes)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *orderedGroups) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	t, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read opening token: %w", err)
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object for content")
	}

	var out orderedGroups
	seen := make(map[string]int)
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read group name: %w", err)
		}
		name, ok := t.(string)
		if !ok {
			return fmt.Errorf("expected group name, got %v", t)
		}
		var suffixes []string
		if err := dec.Decode(&suffixes); err != nil {
			return fmt.Errorf("decode group %q: %w", name, err)
		}
		if i, dup := seen[name]; dup {
			out[i].Suffixes = append(out[i].Suffixes, suffixes...)
			continue
		}
		seen[name] = len(out)
		out = append(out, domain.SuffixGroup{Name: name, Suffixes: suffixes})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read closing token: %w", err)
	}
	*g = out
	return nil
}

// encode renders cat as indented JSON with a trailing newline.
func encode(cat *domain.Catalog) ([]byte, error) {
	b, err := json.MarshalIndent(cacheDocument{
		Timestamp: cat.Timestamp,
		Content:   orderedGroups(cat.Groups),
	}, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// decode parses a cache document. The stored order is trusted as-is.
func decode(b []byte) (*domain.Catalog, error) {
	var doc struct {
		Timestamp *int64        `json:"timestamp"`
		Content   orderedGroups `json:"content"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Timestamp == nil {
		return nil, fmt.Errorf("missing timestamp")
	}
	return &domain.Catalog{Timestamp: *doc.Timestamp, Groups: doc.Content}, nil
}

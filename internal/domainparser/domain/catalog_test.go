package domain

import (
	"reflect"
	"testing"
)

type stubFilter map[string]bool

func (s stubFilter) MightContain(key []byte) bool { return s[string(key)] }

func TestNewCatalog(t *testing.T) {
	groups := []SuffixGroup{
		{Name: "uk", Suffixes: []string{"uk", "co.uk", "uk"}},
		{Name: "empty"},
		{Name: "jp", Suffixes: []string{"jp", "tokyo.jp", "ac.jp"}},
	}
	c := NewCatalog(groups, 1700000000)

	if c.Timestamp != 1700000000 {
		t.Fatalf("Timestamp = %d", c.Timestamp)
	}
	if len(c.Groups) != 2 {
		t.Fatalf("expected empty group to be dropped, got %+v", c.Groups)
	}
	if !reflect.DeepEqual(c.Groups[0].Suffixes, []string{"co.uk", "uk"}) {
		t.Fatalf("uk = %v", c.Groups[0].Suffixes)
	}
	// ties keep ingestion order
	if !reflect.DeepEqual(c.Groups[1].Suffixes, []string{"tokyo.jp", "ac.jp", "jp"}) {
		t.Fatalf("jp = %v", c.Groups[1].Suffixes)
	}
	if c.SuffixCount() != 5 {
		t.Fatalf("SuffixCount = %d, want 5", c.SuffixCount())
	}
	if _, ok := c.Group("jp"); !ok {
		t.Fatalf("Group(jp) not found")
	}
	if _, ok := c.Group("empty"); ok {
		t.Fatalf("Group(empty) should not exist")
	}
}

func TestCatalog_MightMatch(t *testing.T) {
	c := NewCatalog([]SuffixGroup{{Name: "uk", Suffixes: []string{"co.uk"}}}, 1)
	if !c.MightMatch("anything") {
		t.Fatalf("catalog without filter must always answer true")
	}
	fc := c.WithFilter(stubFilter{"uk": true})
	if !fc.MightMatch("uk") || fc.MightMatch("de") {
		t.Fatalf("filter not consulted")
	}
	if c.Filter != nil {
		t.Fatalf("WithFilter modified the original catalog")
	}
}

package domain

// LabelFilter is a probabilistic set of top-level labels. A false answer from
// MightContain guarantees no suffix in the catalog ends with that label.
type LabelFilter interface {
	MightContain(key []byte) bool
}

// Catalog is an immutable snapshot of the suffix list.
//
// Groups are searched in order and a group's suffixes in stored order; the first
// match wins. Timestamp is the Unix time of the ingestion that produced the data.
type Catalog struct {
	Timestamp int64
	Groups    []SuffixGroup

	// Filter is attached by the catalog manager before publishing and is never persisted.
	Filter LabelFilter
}

// NewCatalog finalizes every group (dedupe and length-descending order) and returns
// a catalog stamped with timestamp. Empty groups are dropped.
func NewCatalog(groups []SuffixGroup, timestamp int64) *Catalog {
	out := make([]SuffixGroup, 0, len(groups))
	for _, g := range groups {
		fg := g.finalize()
		if len(fg.Suffixes) == 0 {
			continue
		}
		out = append(out, fg)
	}
	return &Catalog{Timestamp: timestamp, Groups: out}
}

// WithFilter returns a shallow copy of c carrying f.
func (c *Catalog) WithFilter(f LabelFilter) *Catalog {
	cp := *c
	cp.Filter = f
	return &cp
}

// MightMatch reports whether any suffix could end with the given top label.
// Without a filter it always answers true.
func (c *Catalog) MightMatch(topLabel string) bool {
	if c.Filter == nil {
		return true
	}
	return c.Filter.MightContain([]byte(topLabel))
}

// SuffixCount returns the total number of suffixes across all groups.
func (c *Catalog) SuffixCount() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Suffixes)
	}
	return n
}

// Group returns the group with the given name.
func (c *Catalog) Group(name string) (SuffixGroup, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return SuffixGroup{}, false
}

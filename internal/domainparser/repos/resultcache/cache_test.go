package resultcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

func TestResultCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	r := domain.ParseResult{Label: "example", Suffix: "com", Group: "com", ValidHostname: true}

	_, ok := c.Get("k")
	assert.False(t, ok, "expected miss before put")

	c.Put("k", r)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, r, got)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestResultCache_EvictionAndLen(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	c.Put("a", domain.ParseResult{Label: "a"})
	c.Put("b", domain.ParseResult{Label: "b"})
	assert.Equal(t, 2, c.Len())

	c.Put("c", domain.ParseResult{Label: "c"})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	_, _, evictions := c.Stats()
	assert.Equal(t, uint64(1), evictions)
}

func TestResultCache_PurgeCountsEvictions(t *testing.T) {
	c, err := New(3)
	require.NoError(t, err)
	c.Put("a", domain.ParseResult{})
	c.Put("b", domain.ParseResult{})
	c.Put("c", domain.ParseResult{})

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, _, evictions := c.Stats()
	assert.Equal(t, uint64(3), evictions)
}

func TestResultCache_Disabled(t *testing.T) {
	for _, size := range []int{0, -1} {
		c, err := New(size)
		require.NoError(t, err)
		c.Put("x", domain.ParseResult{Label: "x"})
		_, ok := c.Get("x")
		assert.False(t, ok, "expected miss in disabled cache")
		assert.Equal(t, 0, c.Len())
		c.Purge()
		h, m, e := c.Stats()
		assert.Zero(t, h+m+e)
	}
}

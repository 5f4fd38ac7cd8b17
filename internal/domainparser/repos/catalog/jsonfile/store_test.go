package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

func sampleCatalog(ts int64) *domain.Catalog {
	return domain.NewCatalog([]domain.SuffixGroup{
		{Name: "uk", Suffixes: []string{"uk", "co.uk", "sch.uk"}},
		{Name: "au", Suffixes: []string{"au", "com.au"}},
		{Name: "com", Suffixes: []string{"com", "uk.com"}},
	}, ts)
}

func TestFileStore_RoundTripKeepsGroupOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlds.json")
	st := New(path)
	t.Cleanup(func() { _ = st.Close() })

	want := sampleCatalog(1700000000)
	require.NoError(t, st.Save(want))

	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Timestamp, got.Timestamp)
	assert.Equal(t, want.Groups, got.Groups)
	assert.Nil(t, got.Filter)
}

func TestFileStore_HumanReadableLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlds.json")
	require.NoError(t, New(path).Save(sampleCatalog(42)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)
	assert.True(t, strings.HasPrefix(text, "{\n    \"timestamp\": 42,\n    \"content\": {\n        \"uk\": [\n"), text)
	assert.Less(t, strings.Index(text, `"uk"`), strings.Index(text, `"au"`))
	assert.Less(t, strings.Index(text, `"au"`), strings.Index(text, `"com"`))
}

func TestFileStore_IdempotentExceptTimestamp(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, New(a).Save(sampleCatalog(1)))
	require.NoError(t, New(b).Save(sampleCatalog(2)))

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t,
		strings.Replace(string(ab), `"timestamp": 1`, `"timestamp": X`, 1),
		strings.Replace(string(bb), `"timestamp": 2`, `"timestamp": X`, 1))
}

func TestFileStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlds.json")
	st := New(path)
	require.NoError(t, st.Save(sampleCatalog(1)))
	require.NoError(t, st.Save(sampleCatalog(2)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Timestamp)
}

func TestFileStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing.json")).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)

	cases := map[string]string{
		"garbage":           "{not json",
		"missing timestamp": `{"content": {}}`,
		"content not object": `{"timestamp": 1, "content": []}`,
		"bad group":          `{"timestamp": 1, "content": {"uk": "co.uk"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
			_, err := New(p).Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "corrupt cache file")
		})
	}
}

func TestFileStore_SaveError(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "no", "such", "dir", "tlds.json"))
	assert.Error(t, st.Save(sampleCatalog(1)))
}

func TestOrderedGroups_DuplicateKeysMerge(t *testing.T) {
	cat, err := decode([]byte(`{"timestamp": 5, "content": {"uk": ["co.uk"], "au": ["au"], "uk": ["uk"]}}`))
	require.NoError(t, err)
	require.Len(t, cat.Groups, 2)
	assert.Equal(t, []string{"co.uk", "uk"}, cat.Groups[0].Suffixes)
}

package parsers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/domain"
	"github.com/haukened/domainparser/internal/domainparser/gateways/idna"
)

const sampleList = `// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0.

// ===BEGIN ICANN DOMAINS===

// ac : https://en.wikipedia.org/wiki/.ac
ac
com.ac

// uk : https://en.wikipedia.org/wiki/.uk
*.sch.uk
uk
co.uk

// ck : https://en.wikipedia.org/wiki/.ck
*.ck
!www.ck

// fr
fr
   gouv.fr   

// jp
東京.jp
jp

com
// ===END ICANN DOMAINS===
// ===BEGIN PRIVATE DOMAINS===
blogspot.com
github.io
// ===END PRIVATE DOMAINS===
`

func parse(t *testing.T, doc string) []domain.SuffixGroup {
	t.Helper()
	groups, err := ParseSuffixList(strings.NewReader(doc), idna.New(), log.NewNoopLogger())
	require.NoError(t, err)
	return groups
}

func TestParseSuffixList_Groups(t *testing.T) {
	groups := parse(t, sampleList)

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"ac", "uk", "ck", "fr", "jp", "com"}, names, "groups in order of first appearance")

	assert.Equal(t, []string{"ac", "com.ac"}, groups[0].Suffixes)
	assert.Equal(t, []string{"sch.uk", "uk", "co.uk"}, groups[1].Suffixes, "wildcard stripped, order preserved")
	assert.Equal(t, []string{"fr", "gouv.fr"}, groups[3].Suffixes, "surrounding whitespace trimmed")
	assert.Equal(t, []string{"xn--1lqs71d.jp", "jp"}, groups[4].Suffixes, "unicode entries encoded")
}

func TestParseSuffixList_NilLogger(t *testing.T) {
	var groups []domain.SuffixGroup
	require.NotPanics(t, func() {
		var err error
		groups, err = ParseSuffixList(strings.NewReader(sampleList), idna.New(), nil)
		require.NoError(t, err)
	})
	assert.NotEmpty(t, groups)
}

func TestParseSuffixList_DropsExceptionRules(t *testing.T) {
	// "!www.ck" would re-include www.ck under *.ck in the full algorithm; it is dropped here.
	groups := parse(t, sampleList)
	for _, g := range groups {
		for _, s := range g.Suffixes {
			assert.NotContains(t, s, "!")
			assert.NotEqual(t, "www.ck", s)
		}
	}
	assert.Equal(t, []string{"ck"}, groups[2].Suffixes)
}

func TestParseSuffixList_IgnoresPrivateSection(t *testing.T) {
	groups := parse(t, sampleList)
	for _, g := range groups {
		assert.NotContains(t, g.Suffixes, "blogspot.com")
		assert.NotContains(t, g.Suffixes, "github.io")
		assert.NotEqual(t, "io", g.Name)
	}
}

func TestParseSuffixList_MissingMarkers(t *testing.T) {
	cases := map[string]string{
		"no markers": "com\nnet\n",
		"no end":     "// ===BEGIN ICANN DOMAINS===\ncom\n",
		"no begin":   "com\n// ===END ICANN DOMAINS===\n",
		"empty":      "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSuffixList(strings.NewReader(doc), idna.New(), log.NewNoopLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedSource))
		})
	}
}

func TestParseSuffixList_EmptySection(t *testing.T) {
	groups := parse(t, "// ===BEGIN ICANN DOMAINS===\n\n// nothing\n// ===END ICANN DOMAINS===\n")
	assert.Empty(t, groups)
}

type failingEncoder struct{ bad string }

func (f failingEncoder) ToASCII(s string) (string, error) {
	if s == f.bad {
		return "", domain.ErrEncoding
	}
	return s, nil
}

func TestParseSuffixList_SkipsUnencodable(t *testing.T) {
	doc := "// ===BEGIN ICANN DOMAINS===\ncom\nxn--broken\nnet\n// ===END ICANN DOMAINS===\n"
	groups, err := ParseSuffixList(strings.NewReader(doc), failingEncoder{bad: "xn--broken"}, log.NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "com", groups[0].Name)
	assert.Equal(t, "net", groups[1].Name)
}

func TestNormalizeSuffix(t *testing.T) {
	cases := map[string]string{
		"  CO.UK ":   "co.uk",
		"*.ck":       "ck",
		"example.":   "example",
		"\uFEFFcom":  "com",
		"":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeSuffix(in), "normalizeSuffix(%q)", in)
	}
}

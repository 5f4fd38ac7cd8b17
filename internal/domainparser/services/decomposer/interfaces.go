package decomposer

import "github.com/haukened/domainparser/internal/domainparser/domain"

// CatalogProvider serves the current suffix catalog, loading it on first use.
type CatalogProvider interface {
	Catalog() (*domain.Catalog, error)
}

// Normalizer converts between unicode and ASCII-compatible domain strings.
type Normalizer interface {
	ToASCII(s string) (string, error)
	ToUnicode(s string) (string, error)
}

// ResultCache memoizes successful results. Purge drops every entry once a newer
// catalog snapshot makes them unreachable.
type ResultCache interface {
	Get(key string) (domain.ParseResult, bool)
	Put(key string, r domain.ParseResult)
	Purge()
}

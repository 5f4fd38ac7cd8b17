package catalog

import (
	"context"
	"time"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// Store persists catalogs between process runs.
// Load returns an error when nothing usable is stored.
type Store interface {
	Load() (*domain.Catalog, error)
	Save(cat *domain.Catalog) error
	Close() error
}

// Fetcher retrieves the raw suffix list document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Encoder converts suffixes to their ASCII-compatible form.
type Encoder interface {
	ToASCII(s string) (string, error)
}

// Supplemental is the hand-curated group -> suffixes mapping merged on ingestion.
// Its modification time participates in staleness detection.
type Supplemental interface {
	Groups() (map[string][]string, error)
	ModTime() (time.Time, error)
}

// FilterFactory builds top-label filters sized for a catalog.
type FilterFactory interface {
	New(capacity uint64, fpRate float64) Filter
}

// Filter is a mutable probabilistic set attached to catalogs once built.
type Filter interface {
	domain.LabelFilter
	Add(key []byte)
}

// Package app wires the catalog, decomposer and their collaborators from configuration.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/haukened/domainparser/internal/domainparser/common/clock"
	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/config"
	"github.com/haukened/domainparser/internal/domainparser/gateways/idna"
	"github.com/haukened/domainparser/internal/domainparser/gateways/source"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog/bloom"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog/bolt"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog/jsonfile"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog/parsers"
	"github.com/haukened/domainparser/internal/domainparser/repos/resultcache"
	"github.com/haukened/domainparser/internal/domainparser/services/decomposer"
)

// App holds the wired components shared by the binaries.
type App struct {
	Config     *config.AppConfig
	Catalog    *catalog.Manager
	Decomposer *decomposer.Decomposer
	Results    resultcache.Cache
}

// Build constructs every component. The catalog is not loaded yet; callers
// decide whether to Bootstrap eagerly or let the first parse load it.
func Build(cfg *config.AppConfig, logger log.Logger) (*App, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	store, err := NewStore(cfg.CacheBackend, cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	normalizer := idna.New()
	mgr := catalog.NewManager(catalog.Options{
		Store:         store,
		Fetcher:       source.New(source.Options{Timeout: cfg.SourceTimeout, Logger: logger}),
		Encoder:       normalizer,
		Supplemental:  newSupplemental(cfg.SupplementalPath, logger),
		FilterFactory: bloom.NewFactory(),
		Clock:         clock.RealClock{},
		Logger:        logger,
		SourceURL:     cfg.SourceURL,
		TTL:           cfg.CacheTTL,
		ForceReload:   cfg.ForceReload,
	})

	results, err := resultcache.New(cfg.ResultCacheSize)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	dec := decomposer.New(decomposer.Options{
		Catalog:     mgr,
		Normalizer:  normalizer,
		Cache:       results,
		Logger:      logger,
		ThrowErrors: cfg.ThrowErrors,
	})

	return &App{Config: cfg, Catalog: mgr, Decomposer: dec, Results: results}, nil
}

// Close releases the cache store.
func (a *App) Close() error { return a.Catalog.Close() }

// NewStore opens the cache store for backend, creating the parent directory of path.
func NewStore(backend, path string) (catalog.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	switch backend {
	case "json", "":
		return jsonfile.New(path), nil
	case "bolt":
		return bolt.New(path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func newSupplemental(path string, logger log.Logger) *parsers.SupplementalList {
	if path == "" {
		return parsers.NewBundledSupplemental(logger)
	}
	return parsers.NewFileSupplemental(path, logger)
}

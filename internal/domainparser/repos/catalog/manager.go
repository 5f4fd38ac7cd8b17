// Package catalog owns the suffix catalog lifecycle: loading the persisted
// snapshot, deciding when it is stale, ingesting a fresh suffix list and
// publishing the result for lock-free readers.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haukened/domainparser/internal/domainparser/common/clock"
	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/domain"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog/parsers"
)

// DefaultTTL is how long an ingested catalog stays fresh (five days).
const DefaultTTL = 432000 * time.Second

// filterFPRate is the target false-positive rate of the top-label prefilter.
const filterFPRate = 0.01

// Manager loads, refreshes and publishes catalog snapshots.
// Lifecycle calls are serialized; Catalog and NeedsRefresh never block on them
// once a snapshot is published.
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[domain.Catalog]

	ttl         atomic.Int64
	forceReload atomic.Bool

	store        Store
	fetcher      Fetcher
	encoder      Encoder
	supplemental Supplemental
	filters      FilterFactory
	clock        clock.Clock
	logger       log.Logger
	sourceURL    string
}

// Options configures a Manager. Store, Fetcher and Encoder are required.
type Options struct {
	Store         Store
	Fetcher       Fetcher
	Encoder       Encoder
	Supplemental  Supplemental  // optional
	FilterFactory FilterFactory // optional; without it snapshots carry no prefilter
	Clock         clock.Clock
	Logger        log.Logger
	SourceURL     string
	TTL           time.Duration // zero selects DefaultTTL
	ForceReload   bool
}

// NewManager builds a Manager with nothing published.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:        opts.Store,
		fetcher:      opts.Fetcher,
		encoder:      opts.Encoder,
		supplemental: opts.Supplemental,
		filters:      opts.FilterFactory,
		clock:        opts.Clock,
		logger:       opts.Logger,
		sourceURL:    opts.SourceURL,
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.logger == nil {
		m.logger = log.NewNoopLogger()
	}
	m.SetTTL(opts.TTL)
	m.SetForceReload(opts.ForceReload)
	return m
}

// SetTTL changes the freshness window. Non-positive values restore DefaultTTL.
func (m *Manager) SetTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultTTL
	}
	m.ttl.Store(int64(d))
}

// TTL returns the current freshness window.
func (m *Manager) TTL() time.Duration { return time.Duration(m.ttl.Load()) }

// SetForceReload makes every staleness check report true.
func (m *Manager) SetForceReload(v bool) { m.forceReload.Store(v) }

// Catalog returns the published snapshot, loading it from the store first when
// nothing has been published yet.
func (m *Manager) Catalog() (*domain.Catalog, error) {
	if c := m.current.Load(); c != nil {
		return c, nil
	}
	if err := m.EnsureLoaded(); err != nil {
		return nil, err
	}
	return m.current.Load(), nil
}

// EnsureLoaded publishes the persisted catalog if nothing is published yet.
// A missing, corrupt or empty cache yields domain.ErrCacheUnavailable.
func (m *Manager) EnsureLoaded() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLoadedLocked()
}

func (m *Manager) ensureLoadedLocked() error {
	if m.current.Load() != nil {
		return nil
	}
	cat, err := m.store.Load()
	if err != nil {
		m.logger.Debug(map[string]any{"error": err}, "Failed to load catalog cache")
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	for _, g := range cat.Groups {
		if !g.IsOrdered() {
			m.logger.Warn(map[string]any{"group": g.Name}, "Catalog cache group out of order, reordering")
		}
	}
	// Re-finalize so hand-edited caches still honour group ordering.
	cat = domain.NewCatalog(cat.Groups, cat.Timestamp)
	if len(cat.Groups) == 0 {
		return fmt.Errorf("%w: cache holds no suffixes", domain.ErrCacheUnavailable)
	}
	m.publish(cat)
	m.logger.Info(map[string]any{
		"timestamp": cat.Timestamp,
		"groups":    len(cat.Groups),
		"suffixes":  cat.SuffixCount(),
	}, "Suffix catalog loaded from cache")
	return nil
}

// NeedsRefresh reports whether the catalog should be re-ingested at now: when
// force-reload is set, nothing is loaded, the snapshot is older than the TTL, or
// the supplemental list changed after the snapshot was taken.
func (m *Manager) NeedsRefresh(now time.Time) bool {
	if m.forceReload.Load() {
		return true
	}
	cat := m.current.Load()
	if cat == nil {
		return true
	}
	if now.Unix()-cat.Timestamp > int64(m.TTL()/time.Second) {
		return true
	}
	if m.supplemental != nil {
		mt, err := m.supplemental.ModTime()
		if err != nil {
			m.logger.Warn(map[string]any{"error": err}, "Failed to read supplemental list modification time")
			return false
		}
		if mt.Unix() > cat.Timestamp {
			return true
		}
	}
	return false
}

// Ingest builds a catalog from a raw suffix list document merged with the
// supplemental mapping. It does not touch the published snapshot.
func (m *Manager) Ingest(doc []byte) (*domain.Catalog, error) {
	groups, err := parsers.ParseSuffixList(bytes.NewReader(doc), m.encoder, m.logger)
	if err != nil {
		return nil, err
	}
	if m.supplemental != nil {
		extra, err := m.supplemental.Groups()
		if err != nil {
			// The supplemental list only adds suffixes; ingest proceeds without it.
			m.logger.Warn(map[string]any{"error": err}, "Failed to load supplemental list")
		} else {
			groups = domain.MergeGroups(groups, m.encodeExtra(extra))
		}
	}
	cat := domain.NewCatalog(groups, m.clock.Now().Unix())
	if len(cat.Groups) == 0 {
		return nil, fmt.Errorf("%w: ICANN section is empty", domain.ErrMalformedSource)
	}
	return cat, nil
}

func (m *Manager) encodeExtra(extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(extra))
	for name, suffixes := range extra {
		for _, s := range suffixes {
			enc, err := m.encoder.ToASCII(s)
			if err != nil {
				m.logger.Debug(map[string]any{"suffix": s, "error": err}, "Skipping unencodable suffix")
				continue
			}
			out[name] = append(out[name], enc)
		}
	}
	return out
}

// Refresh fetches and ingests the suffix list, persists it and publishes it.
// Fetch and ingestion failures leave the published snapshot untouched. A persist
// failure still publishes the new snapshot and returns domain.ErrCacheWrite.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	start := m.clock.Now()
	doc, err := m.fetcher.Fetch(ctx, m.sourceURL)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceUnreachable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnreachable, err)
		}
		m.logger.Warn(map[string]any{"source": m.sourceURL, "error": err}, "Failed to fetch suffix list")
		return err
	}
	cat, err := m.Ingest(doc)
	if err != nil {
		m.logger.Warn(map[string]any{"source": m.sourceURL, "error": err}, "Failed to ingest suffix list")
		return err
	}
	persistErr := m.save(cat)
	m.publish(cat)
	m.logger.Info(map[string]any{
		"source":   m.sourceURL,
		"groups":   len(cat.Groups),
		"suffixes": cat.SuffixCount(),
		"elapsed":  m.clock.Now().Sub(start).String(),
	}, "Suffix catalog refreshed")
	return persistErr
}

// RefreshIfStale refreshes when NeedsRefresh reports true for the clock's now.
// It reports whether a refresh was attempted.
func (m *Manager) RefreshIfStale(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.NeedsRefresh(m.clock.Now()) {
		return false, nil
	}
	return true, m.refreshLocked(ctx)
}

// Bootstrap brings the manager to a usable state: load the cache, ingest from
// the source when there is none, and refresh a stale catalog. Once a snapshot is
// published, refresh failures are logged and not returned.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if loadErr := m.ensureLoadedLocked(); loadErr != nil {
		if !errors.Is(loadErr, domain.ErrCacheUnavailable) {
			return loadErr
		}
		m.logger.Info(map[string]any{"error": loadErr}, "Catalog cache unavailable, ingesting from source")
		err = m.refreshLocked(ctx)
	} else if m.NeedsRefresh(m.clock.Now()) {
		err = m.refreshLocked(ctx)
	}
	if err == nil {
		return nil
	}
	if m.current.Load() == nil {
		return err
	}
	m.logger.Warn(map[string]any{"error": err}, "Catalog refresh failed, keeping loaded catalog")
	return nil
}

// Persist writes the published snapshot to the store.
func (m *Manager) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat := m.current.Load()
	if cat == nil {
		return fmt.Errorf("%w: no catalog loaded", domain.ErrCacheWrite)
	}
	return m.save(cat)
}

func (m *Manager) save(cat *domain.Catalog) error {
	if err := m.store.Save(cat); err != nil {
		m.logger.Error(map[string]any{"error": err}, "Failed to persist catalog")
		return fmt.Errorf("%w: %w", domain.ErrCacheWrite, err)
	}
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close() error { return m.store.Close() }

// publish attaches a freshly built prefilter and swaps the snapshot in.
func (m *Manager) publish(cat *domain.Catalog) {
	if m.filters != nil {
		cat = cat.WithFilter(m.buildFilter(cat))
	}
	m.current.Store(cat)
}

// buildFilter indexes the top label of every suffix.
func (m *Manager) buildFilter(cat *domain.Catalog) Filter {
	seen := make(map[string]struct{})
	for _, g := range cat.Groups {
		for _, s := range g.Suffixes {
			seen[domain.TopLabel(s)] = struct{}{}
		}
	}
	f := m.filters.New(uint64(len(seen)), filterFPRate)
	for label := range seen {
		f.Add([]byte(label))
	}
	return f
}

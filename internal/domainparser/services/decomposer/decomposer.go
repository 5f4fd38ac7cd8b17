// Package decomposer splits arbitrary strings into a registrable label and its
// public suffix.
package decomposer

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/common/utils"
	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// multiLevelGroup is the one group whose matches keep every label left of the suffix.
const multiLevelGroup = "name"

type Decomposer struct {
	catalog    CatalogProvider
	normalizer Normalizer
	cache      ResultCache
	logger     log.Logger

	throwErrors atomic.Bool
	// snapshot is the timestamp of the catalog the cached results came from.
	snapshot atomic.Int64
}

type Options struct {
	Catalog    CatalogProvider
	Normalizer Normalizer
	Cache      ResultCache // optional
	Logger     log.Logger
	// ThrowErrors returns parse failures to the caller instead of capturing them
	// in ParseResult.Error.
	ThrowErrors bool
}

func New(opts Options) *Decomposer {
	d := &Decomposer{
		catalog:    opts.Catalog,
		normalizer: opts.Normalizer,
		cache:      opts.Cache,
		logger:     opts.Logger,
	}
	if d.logger == nil {
		d.logger = log.NewNoopLogger()
	}
	d.throwErrors.Store(opts.ThrowErrors)
	return d
}

// SetThrowErrors switches between returning failures and capturing them in the result.
func (d *Decomposer) SetThrowErrors(v bool) { d.throwErrors.Store(v) }

// Parse decomposes raw into label and suffix. When nothing in the catalog matches,
// the whole token becomes the label and defaultSuffix is used as the suffix.
//
// In capture mode (the default) failures come back as a result with only Error set
// and a nil error. In throw mode the error is returned instead.
func (d *Decomposer) Parse(raw, defaultSuffix string) (domain.ParseResult, error) {
	res, err := d.parse(raw, defaultSuffix)
	if err == nil {
		return res, nil
	}
	d.logger.Debug(map[string]any{"input": raw, "error": err}, "Failed to parse input")
	if d.throwErrors.Load() {
		return domain.ParseResult{}, err
	}
	return domain.FailedResult(err), nil
}

// IsValid reports whether candidate decomposes into a valid hostname.
// Bare suffixes such as "co.uk" are not valid.
func (d *Decomposer) IsValid(candidate string) bool {
	res, err := d.Parse(candidate, "")
	if err != nil {
		return false
	}
	return res.ValidHostname
}

func (d *Decomposer) parse(raw, defaultSuffix string) (domain.ParseResult, error) {
	cat, err := d.catalog.Catalog()
	if err != nil {
		return domain.ParseResult{}, err
	}

	key := cacheKey(cat.Timestamp, defaultSuffix, raw)
	if d.cache != nil {
		d.observeSnapshot(cat.Timestamp)
		if res, ok := d.cache.Get(key); ok {
			return res, nil
		}
	}

	token, err := d.normalizer.ToASCII(utils.HostToken(raw))
	if err != nil {
		return domain.ParseResult{}, err
	}

	m := search(cat, token)
	res, err := d.classify(token, m, defaultSuffix)
	if err != nil {
		return domain.ParseResult{}, err
	}
	if d.cache != nil {
		d.cache.Put(key, res)
	}
	return res, nil
}

// observeSnapshot purges the result cache the first time a newer catalog is seen.
func (d *Decomposer) observeSnapshot(ts int64) {
	prev := d.snapshot.Load()
	if prev == ts {
		return
	}
	if d.snapshot.CompareAndSwap(prev, ts) && prev != 0 {
		d.cache.Purge()
		d.logger.Debug(map[string]any{"previous": prev, "current": ts}, "Catalog changed, result cache purged")
	}
}

// match is the outcome of the suffix search over an encoded token.
type match struct {
	label  string // encoded label, empty for bare suffixes and misses
	suffix string // encoded suffix, empty on a miss
	group  string
}

// search returns the first suffix, in catalog order, that the token ends with or equals.
func search(cat *domain.Catalog, token string) match {
	if token == "" || !cat.MightMatch(domain.TopLabel(token)) {
		return match{}
	}
	for _, g := range cat.Groups {
		for _, s := range g.Suffixes {
			if token == s {
				return match{suffix: s, group: g.Name}
			}
			if len(token) > len(s) && strings.HasSuffix(token, s) && token[len(token)-len(s)-1] == '.' {
				return match{label: extractLabel(token[:len(token)-len(s)-1], g.Name), suffix: s, group: g.Name}
			}
		}
	}
	return match{}
}

// extractLabel reduces what is left of the suffix to the registrable label.
func extractLabel(rest, group string) string {
	label := strings.Trim(rest, ".")
	if group != multiLevelGroup {
		if i := strings.LastIndexByte(label, '.'); i >= 0 {
			label = label[i+1:]
		}
	}
	if i := strings.LastIndexByte(label, ' '); i >= 0 {
		label = label[i+1:]
	}
	return label
}

func (d *Decomposer) classify(token string, m match, defaultSuffix string) (domain.ParseResult, error) {
	switch {
	case m.label == "" && m.suffix == "" && len(token) <= domain.MaxLabelLength:
		res, err := d.scrubbedLabel(token)
		if err != nil {
			return domain.ParseResult{}, err
		}
		if token == "" {
			res.ValidHostname = false
		}
		res.Suffix, res.SuffixEncoded = defaultSuffix, defaultSuffix
		return res, nil

	case m.label != "" && m.suffix != "" && len(m.label) <= domain.MaxLabelLength:
		res, err := d.scrubbedLabel(m.label)
		if err != nil {
			return domain.ParseResult{}, err
		}
		if err := d.setSuffix(&res, m); err != nil {
			return domain.ParseResult{}, err
		}
		return res, nil

	case m.label == "" && m.suffix != "":
		res := domain.ParseResult{}
		if err := d.setSuffix(&res, m); err != nil {
			return domain.ParseResult{}, err
		}
		return res, nil

	default:
		return domain.ParseResult{}, fmt.Errorf("%w: %q", domain.ErrUnparsable, token)
	}
}

// scrubbedLabel removes forbidden characters from an encoded label and decodes it.
func (d *Decomposer) scrubbedLabel(encoded string) (domain.ParseResult, error) {
	cleaned, ok := domain.ScrubHostname(encoded)
	decoded, err := d.normalizer.ToUnicode(cleaned)
	if err != nil {
		return domain.ParseResult{}, err
	}
	return domain.ParseResult{Label: decoded, LabelEncoded: cleaned, ValidHostname: ok}, nil
}

func (d *Decomposer) setSuffix(res *domain.ParseResult, m match) error {
	decoded, err := d.normalizer.ToUnicode(m.suffix)
	if err != nil {
		return err
	}
	res.Suffix, res.SuffixEncoded, res.Group = decoded, m.suffix, m.group
	return nil
}

func cacheKey(ts int64, defaultSuffix, raw string) string {
	return strconv.FormatInt(ts, 10) + "\x00" + defaultSuffix + "\x00" + raw
}

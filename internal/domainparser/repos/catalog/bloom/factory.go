// Package bloom provides the top-label prefilter attached to catalog snapshots.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/domainparser/internal/domainparser/repos/catalog"
)

// factory implements catalog.FilterFactory.
type factory struct{}

// NewFactory returns a FilterFactory that sizes filters from capacity and FP rate.
func NewFactory() catalog.FilterFactory { return factory{} }

// New constructs a filter sized for capacity keys at the target false-positive rate.
// A zero capacity still yields a usable (empty) filter.
func (factory) New(capacity uint64, fpRate float64) catalog.Filter {
	if capacity == 0 {
		capacity = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	return &filter{bf: bitsbloom.NewWithEstimates(uint(capacity), fpRate)}
}

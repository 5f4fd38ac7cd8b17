// Package refresher keeps the suffix catalog fresh in long-running processes.
package refresher

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/haukened/domainparser/internal/domainparser/common/log"
)

// Catalog is the part of the catalog manager the refresher drives.
type Catalog interface {
	RefreshIfStale(ctx context.Context) (bool, error)
}

type Config struct {
	Interval       time.Duration // how often staleness is checked
	Timeout        time.Duration // per-attempt deadline
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Run checks the catalog every Interval until ctx is done. Failed attempts are
// retried after an exponential backoff with jitter. A non-positive Interval
// disables the loop.
func Run(ctx context.Context, cfg Config, cat Catalog, logger log.Logger) error {
	if cfg.Interval <= 0 {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Minute
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			logger.Info(map[string]any{"reason": ctx.Err()}, "Catalog refresher stopped")
			return ctx.Err()

		case <-ticker.C:
			refreshed, err := refreshOnce(ctx, cat, cfg.Timeout)
			if err != nil {
				failures++
				backoff := calcBackoff(cfg.InitialBackoff, cfg.MaxBackoff, failures)
				logger.Warn(map[string]any{
					"attempt": failures,
					"backoff": backoff.String(),
					"error":   err,
				}, "Catalog refresh failed")

				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					logger.Info(map[string]any{"reason": ctx.Err()}, "Catalog refresher stopped")
					return ctx.Err()
				case <-timer.C:
				}
				continue
			}
			if failures > 0 {
				logger.Info(map[string]any{"failures": failures}, "Catalog refresh recovered")
			}
			failures = 0
			if refreshed {
				logger.Debug(nil, "Catalog refresh completed")
			}
		}
	}
}

func refreshOnce(ctx context.Context, cat Catalog, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return cat.RefreshIfStale(ctx)
}

// calcBackoff doubles initial per consecutive failure, capped at max, then
// applies up to ±20% jitter.
func calcBackoff(initial, max time.Duration, failures int) time.Duration {
	backoff := max
	if f := float64(initial) * math.Pow(2, float64(failures-1)); f < float64(max) {
		backoff = time.Duration(f)
	}

	jitterFrac := 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))

	return backoff + jitter
}

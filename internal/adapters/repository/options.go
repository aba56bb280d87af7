package repository

import (
	"time"

	"github.com/okian/udrf/pkg/logger"
)

type storeOptions struct {
	metricsUpdateInterval time.Duration
	log                   logger.Logger
}

func defaultStoreOptions() storeOptions {
	return storeOptions{metricsUpdateInterval: defaultMetricsUpdateInterval, log: logger.Nop()}
}

// Option applies a configuration option to a review store.
type Option func(*storeOptions)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *storeOptions) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithLogger sets the logger used for storage failures.
func WithLogger(l logger.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// CacheOption applies a configuration option to the ScoreCache.
type CacheOption func(*ScoreCache)

// WithCacheSize bounds the number of cached summaries. Zero or less keeps
// the default.
func WithCacheSize(n int) CacheOption {
	return func(c *ScoreCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

package service

import (
	"github.com/okian/udrf/internal/adapters/provider"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/internal/domain/rubric"
	"github.com/okian/udrf/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCacheSize sets how many auto scores are cached.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithMaxRankingRows truncates ranking feeds. Zero means unlimited.
func WithMaxRankingRows(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRankingRows = n
		}
	}
}

// WithLockPolicy sets how locked reviews may change.
func WithLockPolicy(p review.LockPolicy) Option {
	return func(s *Service) {
		s.lockPolicy = p
	}
}

// WithRubric sets the rubric. Invalid rubrics are ignored.
func WithRubric(r rubric.Rubric) Option {
	return func(s *Service) {
		if r.Validate() == nil {
			s.rubric = r
		}
	}
}

// WithProvider sets the raw data provider.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithReviewStore sets the review store.
func WithReviewStore(store review.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

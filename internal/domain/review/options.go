package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/udrf/internal/domain/rubric"
	"github.com/okian/udrf/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLockPolicy sets how locked reviews may change.
func WithLockPolicy(p LockPolicy) Option {
	return func(s *Service) {
		if p == PolicyStrict || p == PolicyAdminOverride {
			s.policy = p
		}
	}
}

// WithClock sets the time source. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the review ID source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRubric sets the rubric scores and overrides are validated against.
func WithRubric(r rubric.Rubric) Option {
	return func(s *Service) {
		if r.Validate() == nil {
			s.rubric = r
		}
	}
}

func defaultID() string { return uuid.NewString() }

package review

import (
	"context"
	"math"
	"time"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

// Store persists expert reviews. Implementations enforce at most one row per
// key at the storage layer and run Mutate as a single atomic unit.
type Store interface {
	// Get returns the review for key or an apperr.ErrNotFound error.
	Get(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error)
	// Mutate reads the current review (nil when absent), applies fn and
	// writes the result atomically. A nil result deletes the row. A lost
	// update is reported as apperr.ErrConcurrencyConflict.
	Mutate(ctx context.Context, key model.ReviewKey, fn model.ReviewMutation) (*model.ExpertReview, error)
	// ListByExpert returns the expert's reviews for a year, ordered by department.
	ListByExpert(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error)
	// ListByDepartments returns every review of the given departments for a year.
	ListByDepartments(ctx context.Context, deptIDs []string, year string) ([]*model.ExpertReview, error)
	// Count returns the number of stored reviews.
	Count(ctx context.Context) (int, error)
}

// Scores is the score part of an upsert.
type Scores struct {
	// BySection holds one optional score per section; nil keeps the stored value.
	BySection          model.SectionScores
	ItemOverrides      map[string]float64
	NarrativeOverrides map[string]float64
	// Notes replaces the stored notes when non-nil.
	Notes *string
}

// Service implements the review store operations and the lifecycle rules.
type Service struct {
	store  Store
	policy LockPolicy
	rubric rubric.Rubric
	now    func() time.Time
	newID  func() string
	log    logger.Logger
}

// NewService creates a review service over store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	s := &Service{
		store:  store,
		policy: PolicyStrict,
		rubric: rubric.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  defaultID,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Policy returns the configured lock policy.
func (s *Service) Policy() LockPolicy { return s.policy }

// Get returns the review for key.
func (s *Service) Get(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	const op = "review.get"
	if err := validateKey(op, key); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return r, nil
}

// List returns the expert's reviews for a year.
func (s *Service) List(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error) {
	const op = "review.list"
	if expertID == "" {
		return nil, apperr.NewKind(op, apperr.ErrValidation, "expert id is required")
	}
	out, err := s.store.ListByExpert(ctx, expertID, year)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return out, nil
}

// ForDepartments returns every review of the given departments for a year.
func (s *Service) ForDepartments(ctx context.Context, deptIDs []string, year string) ([]*model.ExpertReview, error) {
	out, err := s.store.ListByDepartments(ctx, deptIDs, year)
	if err != nil {
		return nil, apperr.Wrap("review.for_departments", err)
	}
	return out, nil
}

// Count returns the number of stored reviews.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Upsert creates the review on first save and updates it afterwards. Locked
// reviews are rejected. The expert total is always recomputed from the
// section scores.
func (s *Service) Upsert(ctx context.Context, key model.ReviewKey, in Scores) (*model.ExpertReview, error) {
	const op = "review.upsert"
	if err := validateKey(op, key); err != nil {
		return nil, err
	}
	if err := s.validateScores(op, in); err != nil {
		return nil, err
	}

	created := false
	out, err := s.store.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
		if err := CheckSave(op, current); err != nil {
			return nil, err
		}
		now := s.now()
		var next *model.ExpertReview
		if current == nil {
			created = true
			next = &model.ExpertReview{
				ID:           s.newID(),
				ExpertID:     key.ExpertID,
				DepartmentID: key.DepartmentID,
				AcademicYear: key.AcademicYear,
				Status:       model.StatusInProgress,
				CreatedAt:    now,
			}
		} else {
			next = current.Clone()
		}
		s.apply(next, in)
		next.UpdatedAt = now
		return next, nil
	})
	s.record(ctx, op, key, err)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if created {
		s.log.Info(ctx, "review created", logger.String("review_id", out.ID))
	}
	return out, nil
}

// AdminUpdate edits a review regardless of its lock state. It is only
// available under PolicyAdminOverride and never changes the lock state.
func (s *Service) AdminUpdate(ctx context.Context, key model.ReviewKey, in Scores) (*model.ExpertReview, error) {
	const op = "review.admin_update"
	if s.policy != PolicyAdminOverride {
		return nil, apperr.NewKind(op, apperr.ErrForbidden, "administrative updates are disabled by the lock policy")
	}
	if err := validateKey(op, key); err != nil {
		return nil, err
	}
	if err := s.validateScores(op, in); err != nil {
		return nil, err
	}
	out, err := s.store.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
		if current == nil {
			return nil, apperr.NewKind(op, apperr.ErrNotFound, "review not found")
		}
		next := current.Clone()
		s.apply(next, in)
		next.UpdatedAt = s.now()
		return next, nil
	})
	s.record(ctx, op, key, err)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return out, nil
}

// Delete removes the review. Deleting a missing review succeeds and reports
// false; deleting a locked review fails.
func (s *Service) Delete(ctx context.Context, key model.ReviewKey) (bool, error) {
	const op = "review.delete"
	if err := validateKey(op, key); err != nil {
		return false, err
	}
	removed := false
	_, err := s.store.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
		if current == nil {
			return nil, nil
		}
		if StateOf(current) == StateLocked {
			return nil, apperr.NewKind(op, apperr.ErrAlreadyLocked, "review is locked; unlock it before deleting")
		}
		removed = true
		return nil, nil
	})
	s.record(ctx, op, key, err)
	if err != nil {
		return false, apperr.Wrap(op, err)
	}
	return removed, nil
}

// SetLock locks or unlocks the review.
func (s *Service) SetLock(ctx context.Context, key model.ReviewKey, locked bool) (*model.ExpertReview, error) {
	op := "review.unlock"
	apply := ApplyUnlock
	if locked {
		op = "review.lock"
		apply = ApplyLock
	}
	if err := validateKey(op, key); err != nil {
		return nil, err
	}
	out, err := s.store.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
		return apply(op, current, s.now())
	})
	s.record(ctx, op, key, err)
	if err != nil {
		if apperr.IsAlreadyLocked(err) {
			metrics.RecordLockConflict()
		}
		return nil, apperr.Wrap(op, err)
	}
	return out, nil
}

// Lock finalises the review.
func (s *Service) Lock(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	return s.SetLock(ctx, key, true)
}

// Unlock reopens a locked review.
func (s *Service) Unlock(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	return s.SetLock(ctx, key, false)
}

// apply merges in into r and recomputes the expert total.
func (s *Service) apply(r *model.ExpertReview, in Scores) {
	for i, v := range in.BySection {
		if v == nil {
			continue
		}
		capped := model.Round2(model.Clamp(*v, s.rubric.Section(rubric.SectionOrder[i]).MaxPoints))
		r.SectionScores[i] = &capped
	}
	r.ItemOverrides = s.mergeOverrides(r.ItemOverrides, in.ItemOverrides)
	r.NarrativeOverrides = s.mergeOverrides(r.NarrativeOverrides, in.NarrativeOverrides)
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	if r.SectionScores.Any() {
		total := model.Round2(r.SectionScores.Sum())
		r.ExpertTotal = &total
	} else {
		r.ExpertTotal = nil
	}
}

func (s *Service) mergeOverrides(dst, src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for id, v := range src {
		it, _, _ := s.rubric.FindItem(id)
		dst[id] = model.Round2(model.Clamp(v, it.Max))
	}
	return dst
}

// validateScores rejects negative or non-finite values and overrides for
// items that do not exist or are of the wrong kind. Values above a maximum
// are accepted and capped on apply.
func (s *Service) validateScores(op string, in Scores) error {
	for i, v := range in.BySection {
		if v != nil && !validNumber(*v) {
			return apperr.Newf(op, apperr.ErrValidation, "section %s score must be a non-negative number", rubric.SectionOrder[i])
		}
	}
	for id, v := range in.ItemOverrides {
		it, _, ok := s.rubric.FindItem(id)
		if !ok {
			return apperr.Newf(op, apperr.ErrValidation, "unknown item %q", id)
		}
		if isNarrative(it) {
			return apperr.Newf(op, apperr.ErrValidation, "item %s is narrative; use narrativeOverrides", id)
		}
		if !validNumber(v) {
			return apperr.Newf(op, apperr.ErrValidation, "override for %s must be a non-negative number", id)
		}
	}
	for id, v := range in.NarrativeOverrides {
		it, _, ok := s.rubric.FindItem(id)
		if !ok {
			return apperr.Newf(op, apperr.ErrValidation, "unknown item %q", id)
		}
		if !isNarrative(it) {
			return apperr.Newf(op, apperr.ErrValidation, "item %s is not narrative; use itemOverrides", id)
		}
		if !validNumber(v) {
			return apperr.Newf(op, apperr.ErrValidation, "override for %s must be a non-negative number", id)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, op string, key model.ReviewKey, err error) {
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("expert_id", key.ExpertID),
		logger.String("department_id", key.DepartmentID),
		logger.String("academic_year", key.AcademicYear),
	}
	if err != nil {
		metrics.RecordReviewMutation(op, kindLabel(err))
		if apperr.KindOf(err) == nil || apperr.IsConflict(err) {
			s.log.Error(ctx, "review mutation failed", append(fields, logger.Error(err))...)
			return
		}
		s.log.Info(ctx, "review mutation rejected", append(fields, logger.String("reason", apperr.Message(err)))...)
		return
	}
	metrics.RecordReviewMutation(op, "ok")
	s.log.Info(ctx, "review mutated", fields...)
}

func kindLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return "validation"
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrAlreadyLocked:
		return "already_locked"
	case apperr.ErrConcurrencyConflict:
		return "conflict"
	case apperr.ErrForbidden:
		return "forbidden"
	case apperr.ErrDataSource:
		return "data_source"
	}
	return "internal"
}

func validateKey(op string, key model.ReviewKey) error {
	if field := key.Missing(); field != "" {
		return apperr.Newf(op, apperr.ErrValidation, "%s is required", field)
	}
	return nil
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func isNarrative(it rubric.Item) bool {
	return it.Kind == rubric.KindNarrative || it.Kind == rubric.KindMultiNarrative
}

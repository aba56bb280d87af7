package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
)

// MemoryStore keeps reviews in a map guarded by a single mutex. Mutate holds
// the write lock for the whole read-modify-write, which makes every
// check-then-act sequence atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[model.ReviewKey]*model.ExpertReview
	loop  *gaugeLoop
}

// NewMemoryStore constructs an in-memory review store. The metrics goroutine
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		byKey: make(map[model.ReviewKey]*model.ExpertReview),
		loop:  newGaugeLoop(o.metricsUpdateInterval),
	}
	s.loop.start(ctx, s.Count)
	return s
}

// Close stops the background metrics goroutine.
func (s *MemoryStore) Close() error {
	s.loop.close()
	return nil
}

// Get implements review.Store.
func (s *MemoryStore) Get(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	const op = "repository.memory.get"
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byKey[key]
	if !ok {
		return nil, apperr.NewKind(op, apperr.ErrNotFound, "review not found")
	}
	return r.Clone(), nil
}

// Mutate implements review.Store.
func (s *MemoryStore) Mutate(ctx context.Context, key model.ReviewKey, fn model.ReviewMutation) (*model.ExpertReview, error) {
	const op = "repository.memory.mutate"
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.byKey[key]
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		delete(s.byKey, key)
		return nil, nil
	}
	stored := next.Clone()
	stored.ExpertID, stored.DepartmentID, stored.AcademicYear = key.ExpertID, key.DepartmentID, key.AcademicYear
	stored.Version = 1
	if current != nil {
		stored.Version = current.Version + 1
	}
	s.byKey[key] = stored
	return stored.Clone(), nil
}

// ListByExpert implements review.Store.
func (s *MemoryStore) ListByExpert(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error) {
	return s.list(ctx, func(r *model.ExpertReview) bool {
		return r.ExpertID == expertID && (year == "" || r.AcademicYear == year)
	})
}

// ListByDepartments implements review.Store.
func (s *MemoryStore) ListByDepartments(ctx context.Context, deptIDs []string, year string) ([]*model.ExpertReview, error) {
	want := make(map[string]struct{}, len(deptIDs))
	for _, id := range deptIDs {
		want[id] = struct{}{}
	}
	return s.list(ctx, func(r *model.ExpertReview) bool {
		_, ok := want[r.DepartmentID]
		return ok && (year == "" || r.AcademicYear == year)
	})
}

// Count implements review.Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey), nil
}

func (s *MemoryStore) list(ctx context.Context, match func(*model.ExpertReview) bool) ([]*model.ExpertReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap("repository.memory.list", err)
	}
	s.mu.RLock()
	out := make([]*model.ExpertReview, 0)
	for _, r := range s.byKey {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sortReviews(out)
	return out, nil
}

// sortReviews orders reviews by department, year and expert so listings are
// deterministic across stores.
func sortReviews(rs []*model.ExpertReview) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.DepartmentID != b.DepartmentID {
			return a.DepartmentID < b.DepartmentID
		}
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear < b.AcademicYear
		}
		return a.ExpertID < b.ExpertID
	})
}

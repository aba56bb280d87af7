// Package service wires the raw data provider, the scoring engine, the score
// cache, the review store and the recompute pool into the operations served
// by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/udrf/internal/adapters/mq/queue"
	"github.com/okian/udrf/internal/adapters/mq/worker"
	"github.com/okian/udrf/internal/adapters/provider"
	"github.com/okian/udrf/internal/adapters/repository"
	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/dedupe"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/ranking"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/internal/domain/rubric"
	"github.com/okian/udrf/internal/domain/scoring"
	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

// MessageDuplicate is returned for a save whose idempotency key was seen.
const MessageDuplicate = "duplicate request ignored"

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies of the scoring and review engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider provider.Provider
	store    review.Store
	engine   *scoring.Engine
	cache    *repository.ScoreCache
	reviews  *review.Service
	deduper  dedupe.Deduper
	saves    singleflight.Group
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	cacheSize      int
	maxRankingRows int
	lockPolicy     review.LockPolicy
	rubric         rubric.Rubric

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      10000,
		dedupeSize:     50000,
		cacheSize:      4096,
		maxRankingRows: 0,
		lockPolicy:     review.PolicyStrict,
		rubric:         rubric.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting scoring service...")

	if s.provider == nil {
		s.provider = provider.NewMemoryProvider()
		s.logger.Warn(ctx, "no raw data provider configured; every department is unknown")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory review store")
	}

	s.engine = scoring.NewEngine(scoring.WithRubric(s.rubric), scoring.WithLogger(s.logger.Named("scoring")))
	s.cache = repository.NewScoreCache(repository.WithCacheSize(s.cacheSize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	reviews, err := review.NewService(s.store,
		review.WithLockPolicy(s.lockPolicy),
		review.WithRubric(s.engine.Rubric()),
		review.WithLogger(s.logger.Named("review")),
	)
	if err != nil {
		return err
	}
	s.reviews = reviews

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.WithLogger(s.logger))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.String("lockPolicy", string(s.lockPolicy)),
	)
	return nil
}

// Stop drains the recompute queue and releases the components.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "recompute pool did not drain", logger.Error(err))
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Policy returns the configured lock policy.
func (s *Service) Policy() review.LockPolicy { return s.lockPolicy }

// Rubric returns the rubric scores are computed with.
func (s *Service) Rubric() rubric.Rubric { return s.rubric }

// ComputeDepartmentScores returns the auto score of a department, served
// from the cache while the department's raw data is unchanged.
func (s *Service) ComputeDepartmentScores(ctx context.Context, deptID, year string) (model.DepartmentScoreSummary, error) {
	const op = "service.compute_scores"
	if err := s.ready(); err != nil {
		return model.DepartmentScoreSummary{}, err
	}
	if err := requireIDs(op, deptID, year); err != nil {
		return model.DepartmentScoreSummary{}, err
	}
	dept, raw, err := s.load(ctx, op, deptID, year)
	if err != nil {
		return model.DepartmentScoreSummary{}, err
	}
	fp := repository.Fingerprint(raw)
	if summary, ok := s.cache.Get(deptID, year, fp); ok {
		return summary, nil
	}
	return s.score(ctx, op, dept, raw, fp)
}

// Recompute computes and caches one department's auto score regardless of
// the cache. It implements worker.Recomputer.
func (s *Service) Recompute(ctx context.Context, job model.RecomputeJob) error {
	const op = "service.recompute"
	dept, raw, err := s.load(ctx, op, job.DepartmentID, job.AcademicYear)
	if err != nil {
		return err
	}
	_, err = s.score(ctx, op, dept, raw, repository.Fingerprint(raw))
	return err
}

// EnqueueRecompute queues a recompute of every department of a category.
// It returns the number of queued jobs; a full queue stops early with
// queue.ErrFull.
func (s *Service) EnqueueRecompute(ctx context.Context, category, year string) (int, error) {
	const op = "service.enqueue_recompute"
	if err := s.ready(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(year) == "" {
		return 0, apperr.NewKind(op, apperr.ErrValidation, "academicYear is required")
	}
	depts, err := s.provider.Departments(ctx, category, year)
	if err != nil {
		return 0, apperr.Wrap(op, err)
	}
	queued := 0
	for _, d := range depts {
		if err := s.queue.Enqueue(ctx, model.RecomputeJob{DepartmentID: d.ID, AcademicYear: year}); err != nil {
			s.logger.Warn(ctx, "recompute enqueue stopped", logger.Int("queued", queued), logger.Error(err))
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// Rankings returns the ranking feed of a category. With expertID only that
// expert's reviews are considered.
func (s *Service) Rankings(ctx context.Context, category, year, expertID string) ([]model.RankingRow, error) {
	const op = "service.rankings"
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(year) == "" {
		return nil, apperr.NewKind(op, apperr.ErrValidation, "academicYear is required")
	}
	depts, err := s.provider.Departments(ctx, category, year)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}

	candidates := make([]ranking.Candidate, len(depts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pool.Size())
	for i, d := range depts {
		g.Go(func() error {
			summary, err := s.ComputeDepartmentScores(gctx, d.ID, year)
			if err != nil {
				return err
			}
			candidates[i] = ranking.Candidate{Department: d, Auto: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(op, err)
	}

	ids := make([]string, len(depts))
	for i, d := range depts {
		ids[i] = d.ID
	}
	reviews, err := s.reviews.ForDepartments(ctx, ids, year)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	byDept := make(map[string][]*model.ExpertReview, len(depts))
	for _, r := range reviews {
		byDept[r.DepartmentID] = append(byDept[r.DepartmentID], r)
	}
	for i := range candidates {
		candidates[i].Reviews = byDept[candidates[i].Department.ID]
	}

	rows := ranking.Build(candidates, expertID, s.maxRankingRows)
	metrics.RecordRanking(len(rows))
	return rows, nil
}

// SaveReview runs the review save endpoint for expertID. A non-empty
// idempotency key makes repeats of the same request no-ops.
func (s *Service) SaveReview(ctx context.Context, expertID, idempotencyKey string, req review.SaveRequest) (review.SaveResult, error) {
	const op = "service.save_review"
	if err := s.ready(); err != nil {
		return review.SaveResult{}, err
	}
	if err := s.requireDepartment(ctx, op, req.Key(expertID)); err != nil {
		return review.SaveResult{}, err
	}

	k := strings.TrimSpace(idempotencyKey)
	if k == "" {
		return s.reviews.Save(ctx, expertID, req)
	}

	// Saves sharing a key run one at a time. A repeat that arrives while the
	// first is still running waits for it and gets its outcome.
	dedupeKey := expertID + ":" + k
	v, err, _ := s.saves.Do(dedupeKey, func() (any, error) {
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordDuplicateRequest()
			s.logger.Info(ctx, "duplicate save ignored",
				logger.String("expert_id", expertID), logger.String("idempotency_key", k))
			return review.SaveResult{Success: true, Message: MessageDuplicate}, nil
		}
		res, err := s.reviews.Save(ctx, expertID, req)
		if err != nil {
			s.deduper.Unrecord(ctx, dedupeKey)
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return review.SaveResult{}, err
	}
	return v.(review.SaveResult), nil
}

// GetReview returns the caller's review of a department.
func (s *Service) GetReview(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.reviews.Get(ctx, key)
}

// ListReviews returns the caller's reviews for a year.
func (s *Service) ListReviews(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.reviews.List(ctx, expertID, year)
}

// SetLock locks or unlocks the caller's review.
func (s *Service) SetLock(ctx context.Context, key model.ReviewKey, locked bool) (*model.ExpertReview, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.requireDepartment(ctx, "service.set_lock", key); err != nil {
		return nil, err
	}
	return s.reviews.SetLock(ctx, key, locked)
}

// AdminUpdate edits any expert's review through the administrative path.
func (s *Service) AdminUpdate(ctx context.Context, expertID string, req review.SaveRequest) (*model.ExpertReview, error) {
	const op = "service.admin_update"
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := req.Key(expertID)
	if err := s.requireDepartment(ctx, op, key); err != nil {
		return nil, err
	}
	scores, err := review.ToScores(req)
	if err != nil {
		return nil, err
	}
	return s.reviews.AdminUpdate(ctx, key, scores)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"lockPolicy":  string(s.lockPolicy),
		"maxTotal":    s.rubric.TotalMax(),
	}
	if !s.started {
		return stats
	}

	stats["workerCount"] = s.pool.Size()
	stats["activeWorkers"] = s.pool.Active()
	stats["queueLength"] = s.queue.Len()
	stats["cachedScores"] = s.cache.Len()
	stats["dedupeEntries"] = s.deduper.Size()
	if n, err := s.reviews.Count(ctx); err == nil {
		stats["reviews"] = n
		metrics.UpdateReviewsTotal(n)
	}
	metrics.UpdateQueueSize(s.queue.Len())
	metrics.UpdateCacheSize(s.cache.Len())
	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) load(ctx context.Context, op, deptID, year string) (model.Department, model.RawData, error) {
	dept, err := s.provider.Department(ctx, deptID, year)
	if err != nil {
		return model.Department{}, model.RawData{}, apperr.Wrap(op, err)
	}
	raw, err := s.provider.Raw(ctx, deptID, year)
	if err != nil {
		return model.Department{}, model.RawData{}, apperr.Wrap(op, err)
	}
	return dept, raw, nil
}

func (s *Service) score(ctx context.Context, op string, dept model.Department, raw model.RawData, fp uint64) (model.DepartmentScoreSummary, error) {
	start := time.Now()
	summary, err := s.engine.Score(ctx, scoring.Input{Department: dept, Raw: raw})
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		return model.DepartmentScoreSummary{}, apperr.Wrap(op, err)
	}
	metrics.RecordScoreComputed()
	s.cache.Put(dept.ID, dept.AcademicYear, fp, summary)
	return summary, nil
}

// requireDepartment rejects review operations on departments the provider
// does not know.
func (s *Service) requireDepartment(ctx context.Context, op string, key model.ReviewKey) error {
	if key.DepartmentID == "" || key.AcademicYear == "" {
		return nil // reported by the review service with the field name
	}
	_, err := s.provider.Department(ctx, key.DepartmentID, key.AcademicYear)
	switch {
	case err == nil:
		return nil
	case apperr.IsNotFound(err):
		return apperr.Newf(op, apperr.ErrValidation, "unknown department %s for %s", key.DepartmentID, key.AcademicYear)
	default:
		return apperr.Wrap(op, err)
	}
}

func requireIDs(op, deptID, year string) error {
	switch {
	case strings.TrimSpace(deptID) == "":
		return apperr.NewKind(op, apperr.ErrValidation, "deptId is required")
	case strings.TrimSpace(year) == "":
		return apperr.NewKind(op, apperr.ErrValidation, "academicYear is required")
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

const pgUniqueViolation = "23505"

const reviewColumns = `id, expert_id, department_id, academic_year, section_scores, expert_total,
  item_overrides, narrative_overrides, notes, status, is_locked, version, created_at, updated_at, completed_at`

// SQLStore persists reviews in the expert_reviews table. The unique key on
// (expert_id, department_id, academic_year) rejects a second row for a key and
// the version column turns concurrent read-modify-write cycles into
// ConcurrencyConflict errors instead of lost updates.
type SQLStore struct {
	db   *sql.DB
	log  logger.Logger
	loop *gaugeLoop
}

// NewSQLStore wraps an opened database. See Open.
func NewSQLStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &SQLStore{db: db, log: o.log, loop: newGaugeLoop(o.metricsUpdateInterval)}
	s.loop.start(ctx, s.Count)
	return s, nil
}

// Close stops the background metrics goroutine. The database handle is
// owned by the caller.
func (s *SQLStore) Close() error {
	s.loop.close()
	return nil
}

// Get implements review.Store.
func (s *SQLStore) Get(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error) {
	const op = "repository.sql.get"
	r, err := getReview(ctx, s.db, key)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if r == nil {
		return nil, apperr.NewKind(op, apperr.ErrNotFound, "review not found")
	}
	return r, nil
}

// Mutate implements review.Store. The read and the write run in one
// transaction; the write is conditional on the version that was read.
func (s *SQLStore) Mutate(ctx context.Context, key model.ReviewKey, fn model.ReviewMutation) (*model.ExpertReview, error) {
	const op = "repository.sql.mutate"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getReview(ctx, tx, key)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	switch {
	case next == nil && current == nil:
		return nil, nil
	case next == nil:
		res, err := tx.ExecContext(ctx, `DELETE FROM expert_reviews WHERE id = $1 AND version = $2`, current.ID, current.Version)
		if err := checkAffected(op, res, err); err != nil {
			return nil, s.fail(ctx, op, err)
		}
	case current == nil:
		next = next.Clone()
		next.ExpertID, next.DepartmentID, next.AcademicYear = key.ExpertID, key.DepartmentID, key.AcademicYear
		next.Version = 1
		if err := insertReview(ctx, tx, next); err != nil {
			if isUniqueViolation(err) {
				return nil, apperr.NewKind(op, apperr.ErrConcurrencyConflict, "review was created concurrently; retry")
			}
			return nil, s.fail(ctx, op, err)
		}
	default:
		next = next.Clone()
		next.ID = current.ID
		next.ExpertID, next.DepartmentID, next.AcademicYear = key.ExpertID, key.DepartmentID, key.AcademicYear
		next.Version = current.Version + 1
		if err := updateReview(ctx, tx, next, current.Version); err != nil {
			return nil, s.fail(ctx, op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return next, nil
}

// ListByExpert implements review.Store.
func (s *SQLStore) ListByExpert(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error) {
	const op = "repository.sql.list_by_expert"
	q := `SELECT ` + reviewColumns + ` FROM expert_reviews WHERE expert_id = $1`
	args := []any{expertID}
	if year != "" {
		q += ` AND academic_year = $2`
		args = append(args, year)
	}
	out, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return out, nil
}

// ListByDepartments implements review.Store.
func (s *SQLStore) ListByDepartments(ctx context.Context, deptIDs []string, year string) ([]*model.ExpertReview, error) {
	const op = "repository.sql.list_by_departments"
	if len(deptIDs) == 0 {
		return []*model.ExpertReview{}, nil
	}
	args := make([]any, 0, len(deptIDs)+1)
	marks := make([]string, 0, len(deptIDs))
	for _, id := range deptIDs {
		args = append(args, id)
		marks = append(marks, fmt.Sprintf("$%d", len(args)))
	}
	q := `SELECT ` + reviewColumns + ` FROM expert_reviews WHERE department_id IN (` + strings.Join(marks, ", ") + `)`
	if year != "" {
		args = append(args, year)
		q += fmt.Sprintf(` AND academic_year = $%d`, len(args))
	}
	out, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return out, nil
}

// Count implements review.Store.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expert_reviews`).Scan(&n); err != nil {
		return 0, s.fail(ctx, "repository.sql.count", err)
	}
	return n, nil
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) ([]*model.ExpertReview, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.ExpertReview, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortReviews(out)
	return out, nil
}

// fail classifies storage errors. Errors that already carry a kind pass
// through; everything else is a data source failure.
func (s *SQLStore) fail(ctx context.Context, op string, err error) error {
	if apperr.KindOf(err) != nil {
		return apperr.Wrap(op, err)
	}
	metrics.RecordError("repository", "sql")
	s.log.Error(ctx, "review storage failed", logger.String("op", op), logger.Error(err))
	return apperr.WrapKind(op, apperr.ErrDataSource, err)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getReview(ctx context.Context, q querier, key model.ReviewKey) (*model.ExpertReview, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM expert_reviews WHERE expert_id = $1 AND department_id = $2 AND academic_year = $3`,
		key.ExpertID, key.DepartmentID, key.AcademicYear)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func scanReview(sc scanner) (*model.ExpertReview, error) {
	var (
		r                         model.ExpertReview
		scores, items, narratives string
		status                    string
		total                     sql.NullFloat64
		created, updated          int64
		completed                 sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &r.ExpertID, &r.DepartmentID, &r.AcademicYear, &scores, &total,
		&items, &narratives, &r.Notes, &status, &r.IsLocked, &r.Version, &created, &updated, &completed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scores), &r.SectionScores); err != nil {
		return nil, fmt.Errorf("decode section scores of %s: %w", r.ID, err)
	}
	if err := decodeOverrides(items, &r.ItemOverrides); err != nil {
		return nil, fmt.Errorf("decode item overrides of %s: %w", r.ID, err)
	}
	if err := decodeOverrides(narratives, &r.NarrativeOverrides); err != nil {
		return nil, fmt.Errorf("decode narrative overrides of %s: %w", r.ID, err)
	}
	if total.Valid {
		t := total.Float64
		r.ExpertTotal = &t
	}
	r.Status = model.ReviewStatus(status)
	r.CreatedAt = fromUnixNano(created)
	r.UpdatedAt = fromUnixNano(updated)
	if completed.Valid {
		c := fromUnixNano(completed.Int64)
		r.CompletedAt = &c
	}
	return &r, nil
}

func insertReview(ctx context.Context, tx *sql.Tx, r *model.ExpertReview) error {
	args, err := reviewArgs(r)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO expert_reviews (`+reviewColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, args...)
	return err
}

func updateReview(ctx context.Context, tx *sql.Tx, r *model.ExpertReview, prevVersion int64) error {
	const op = "repository.sql.update"
	args, err := reviewArgs(r)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE expert_reviews SET
  section_scores = $5, expert_total = $6, item_overrides = $7, narrative_overrides = $8, notes = $9,
  status = $10, is_locked = $11, version = $12, created_at = $13, updated_at = $14, completed_at = $15
WHERE id = $1 AND expert_id = $2 AND department_id = $3 AND academic_year = $4 AND version = $16`,
		append(args, prevVersion)...)
	return checkAffected(op, res, err)
}

func reviewArgs(r *model.ExpertReview) ([]any, error) {
	scores, err := json.Marshal(r.SectionScores)
	if err != nil {
		return nil, err
	}
	items, err := encodeOverrides(r.ItemOverrides)
	if err != nil {
		return nil, err
	}
	narratives, err := encodeOverrides(r.NarrativeOverrides)
	if err != nil {
		return nil, err
	}
	var total sql.NullFloat64
	if r.ExpertTotal != nil {
		total = sql.NullFloat64{Float64: *r.ExpertTotal, Valid: true}
	}
	var completed sql.NullInt64
	if r.CompletedAt != nil {
		completed = sql.NullInt64{Int64: r.CompletedAt.UnixNano(), Valid: true}
	}
	return []any{
		r.ID, r.ExpertID, r.DepartmentID, r.AcademicYear, string(scores), total,
		items, narratives, r.Notes, string(r.Status), r.IsLocked, r.Version,
		r.CreatedAt.UnixNano(), r.UpdatedAt.UnixNano(), completed,
	}, nil
}

func checkAffected(op string, res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NewKind(op, apperr.ErrConcurrencyConflict, "review was modified concurrently; retry")
	}
	return nil
}

func encodeOverrides(m map[string]float64) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func decodeOverrides(s string, dst *map[string]float64) error {
	var m map[string]float64
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return err
	}
	if len(m) > 0 {
		*dst = m
	}
	return nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

// SQLProvider reads the departments and department_sections tables. Each
// section of a submission is stored as one JSON payload row, keyed by the
// section's field name in model.RawData.
type SQLProvider struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLProvider wraps a database opened with repository.Open.
func NewSQLProvider(db *sql.DB, log logger.Logger) *SQLProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &SQLProvider{db: db, log: log}
}

// Department implements Provider.
func (p *SQLProvider) Department(ctx context.Context, deptID, year string) (model.Department, error) {
	const op = "provider.sql.department"
	var d model.Department
	err := p.db.QueryRowContext(ctx,
		`SELECT id, code, name, category, academic_year FROM departments WHERE id = $1 AND academic_year = $2`,
		deptID, year).Scan(&d.ID, &d.Code, &d.Name, &d.Category, &d.AcademicYear)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Department{}, apperr.Newf(op, apperr.ErrNotFound, "department %s has no record for %s", deptID, year)
	}
	if err != nil {
		return model.Department{}, p.fail(ctx, op, err)
	}
	return d, nil
}

// Departments implements Provider.
func (p *SQLProvider) Departments(ctx context.Context, category, year string) ([]model.Department, error) {
	const op = "provider.sql.departments"
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, code, name, category, academic_year FROM departments WHERE academic_year = $1 ORDER BY id`, year)
	if err != nil {
		return nil, p.fail(ctx, op, err)
	}
	defer rows.Close()

	out := make([]model.Department, 0)
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Category, &d.AcademicYear); err != nil {
			return nil, p.fail(ctx, op, err)
		}
		if matchCategory(category, d.Category) {
			out = append(out, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, p.fail(ctx, op, err)
	}
	return out, nil
}

// Raw implements Provider. Section payloads that are not valid JSON are
// skipped and the section scores as empty.
func (p *SQLProvider) Raw(ctx context.Context, deptID, year string) (model.RawData, error) {
	const op = "provider.sql.raw"
	if _, err := p.Department(ctx, deptID, year); err != nil {
		return model.RawData{}, apperr.Wrap(op, err)
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT section, payload FROM department_sections WHERE department_id = $1 AND academic_year = $2`, deptID, year)
	if err != nil {
		return model.RawData{}, p.fail(ctx, op, err)
	}
	defer rows.Close()

	tree := make(map[string]json.RawMessage)
	for rows.Next() {
		var section, payload string
		if err := rows.Scan(&section, &payload); err != nil {
			return model.RawData{}, p.fail(ctx, op, err)
		}
		if !json.Valid([]byte(payload)) {
			p.log.Debug(ctx, "skipping malformed section payload",
				logger.String("department_id", deptID), logger.String("section", section))
			continue
		}
		tree[section] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return model.RawData{}, p.fail(ctx, op, err)
	}

	raw := model.RawData{}
	if len(tree) > 0 {
		b, err := json.Marshal(tree)
		if err != nil {
			return model.RawData{}, p.fail(ctx, op, err)
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return model.RawData{}, p.fail(ctx, op, err)
		}
	}
	raw.DepartmentID, raw.AcademicYear = deptID, year
	return raw, nil
}

// Put stores a department and its submission, replacing earlier rows.
func (p *SQLProvider) Put(ctx context.Context, r Record) error {
	const op = "provider.sql.put"
	sections, err := splitSections(r.Raw)
	if err != nil {
		return apperr.WrapKind(op, apperr.ErrValidation, err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return p.fail(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	d := r.Department
	if _, err := tx.ExecContext(ctx, `INSERT INTO departments (id, academic_year, code, name, category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id, academic_year) DO UPDATE SET code = excluded.code, name = excluded.name, category = excluded.category`,
		d.ID, d.AcademicYear, d.Code, d.Name, d.Category); err != nil {
		return p.fail(ctx, op, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM department_sections WHERE department_id = $1 AND academic_year = $2`,
		d.ID, d.AcademicYear); err != nil {
		return p.fail(ctx, op, err)
	}
	for section, payload := range sections {
		if _, err := tx.ExecContext(ctx, `INSERT INTO department_sections (department_id, academic_year, section, payload)
VALUES ($1, $2, $3, $4)`, d.ID, d.AcademicYear, section, string(payload)); err != nil {
			return p.fail(ctx, op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return p.fail(ctx, op, err)
	}
	return nil
}

// Seed copies every record of src into the database.
func (p *SQLProvider) Seed(ctx context.Context, src *MemoryProvider) (int, error) {
	n := 0
	for _, r := range src.Records() {
		if err := p.Put(ctx, r); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (p *SQLProvider) fail(ctx context.Context, op string, err error) error {
	metrics.RecordError("provider", "sql")
	p.log.Error(ctx, "raw data source failed", logger.String("op", op), logger.Error(err))
	return apperr.WrapKind(op, apperr.ErrDataSource, err)
}

// splitSections breaks a submission into its top-level JSON sections,
// dropping the identity fields stored on the departments row.
func splitSections(raw model.RawData) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw data: %w", err)
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(b, &sections); err != nil {
		return nil, fmt.Errorf("split raw data: %w", err)
	}
	delete(sections, "department_id")
	delete(sections, "academic_year")
	return sections, nil
}

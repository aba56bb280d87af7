package provider

import (
	"context"
	"sync"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
)

type recordKey struct {
	id   string
	year string
}

// MemoryProvider serves records held in memory, usually loaded from a
// fixture file.
type MemoryProvider struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemoryProvider creates a provider holding records.
func NewMemoryProvider(records ...Record) *MemoryProvider {
	p := &MemoryProvider{records: make(map[recordKey]Record, len(records))}
	for _, r := range records {
		p.Put(r)
	}
	return p
}

// Put adds or replaces a record. The submission inherits the department's
// identity.
func (p *MemoryProvider) Put(r Record) {
	r.Raw.DepartmentID = r.Department.ID
	r.Raw.AcademicYear = r.Department.AcademicYear
	p.mu.Lock()
	p.records[recordKey{r.Department.ID, r.Department.AcademicYear}] = r
	p.mu.Unlock()
}

// Records returns every record ordered by department ID and year.
func (p *MemoryProvider) Records() []Record {
	p.mu.RLock()
	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r)
	}
	p.mu.RUnlock()
	sortRecords(out)
	return out
}

// Department implements Provider.
func (p *MemoryProvider) Department(ctx context.Context, deptID, year string) (model.Department, error) {
	r, err := p.get(ctx, "provider.memory.department", deptID, year)
	return r.Department, err
}

// Raw implements Provider.
func (p *MemoryProvider) Raw(ctx context.Context, deptID, year string) (model.RawData, error) {
	r, err := p.get(ctx, "provider.memory.raw", deptID, year)
	return r.Raw, err
}

// Departments implements Provider.
func (p *MemoryProvider) Departments(ctx context.Context, category, year string) ([]model.Department, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap("provider.memory.departments", err)
	}
	p.mu.RLock()
	out := make([]model.Department, 0)
	for k, r := range p.records {
		if k.year == year && matchCategory(category, r.Department.Category) {
			out = append(out, r.Department)
		}
	}
	p.mu.RUnlock()
	sortDepartments(out)
	return out, nil
}

func (p *MemoryProvider) get(ctx context.Context, op, deptID, year string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, apperr.Wrap(op, err)
	}
	p.mu.RLock()
	r, ok := p.records[recordKey{deptID, year}]
	p.mu.RUnlock()
	if !ok {
		return Record{}, apperr.Newf(op, apperr.ErrNotFound, "department %s has no record for %s", deptID, year)
	}
	return r, nil
}

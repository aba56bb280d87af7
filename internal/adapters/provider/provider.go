// Package provider supplies departments and their raw submissions to the
// scoring engine. The roster and the submissions are owned elsewhere; this
// package only reads them.
package provider

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/udrf/internal/domain/model"
)

// Provider is the raw data source consumed by the engine.
type Provider interface {
	// Department returns the department or an apperr.ErrNotFound error.
	Department(ctx context.Context, deptID, year string) (model.Department, error)
	// Departments lists the departments of a category for a year, ordered
	// by ID. An empty category matches every department.
	Departments(ctx context.Context, category, year string) ([]model.Department, error)
	// Raw returns the department's submission. A department that has not
	// submitted anything yields an empty record, not an error.
	Raw(ctx context.Context, deptID, year string) (model.RawData, error)
}

// Record pairs a department with its submission.
type Record struct {
	Department model.Department
	Raw        model.RawData
}

func matchCategory(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
}

func sortDepartments(ds []model.Department) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}

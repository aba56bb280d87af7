package model

import (
	"strings"
	"time"

	"github.com/okian/udrf/internal/domain/rubric"
)

// ReviewKey identifies an expert review. At most one review exists per key.
type ReviewKey struct {
	ExpertID     string `json:"expertId"`
	DepartmentID string `json:"deptId"`
	AcademicYear string `json:"academicYear"`
}

// Missing returns the name of the first empty key field, or "".
func (k ReviewKey) Missing() string {
	switch {
	case strings.TrimSpace(k.ExpertID) == "":
		return "expertId"
	case strings.TrimSpace(k.DepartmentID) == "":
		return "deptId"
	case strings.TrimSpace(k.AcademicYear) == "":
		return "academicYear"
	}
	return ""
}

// String renders the key for logs and cache keys.
func (k ReviewKey) String() string {
	return k.ExpertID + "/" + k.DepartmentID + "/" + k.AcademicYear
}

// ReviewStatus is the persisted lifecycle status.
type ReviewStatus string

// Review statuses. Completed is accepted on read as a synonym of Locked.
const (
	StatusInProgress ReviewStatus = "in_progress"
	StatusCompleted  ReviewStatus = "completed"
	StatusLocked     ReviewStatus = "locked"
)

// SectionScores holds one optional expert score per rubric section.
type SectionScores [rubric.SectionCount]*float64

// Sum adds the present scores.
func (s SectionScores) Sum() float64 {
	total := 0.0
	for _, v := range s {
		if v != nil {
			total += *v
		}
	}
	return total
}

// Any reports whether at least one score is present.
func (s SectionScores) Any() bool {
	for _, v := range s {
		if v != nil {
			return true
		}
	}
	return false
}

// ExpertReview is the persisted review of a department by one expert.
type ExpertReview struct {
	ID                 string             `json:"id"`
	ExpertID           string             `json:"expertId"`
	DepartmentID       string             `json:"deptId"`
	AcademicYear       string             `json:"academicYear"`
	SectionScores      SectionScores      `json:"expertScoresBySection"`
	ExpertTotal        *float64           `json:"expertTotal"`
	ItemOverrides      map[string]float64 `json:"itemOverrides,omitempty"`
	NarrativeOverrides map[string]float64 `json:"narrativeOverrides,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	Status             ReviewStatus       `json:"status"`
	IsLocked           bool               `json:"isLocked"`
	Version            int64              `json:"version"` // bumped by the store on every write
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
}

// Key returns the identity of the review.
func (r *ExpertReview) Key() ReviewKey {
	return ReviewKey{ExpertID: r.ExpertID, DepartmentID: r.DepartmentID, AcademicYear: r.AcademicYear}
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (r *ExpertReview) Clone() *ExpertReview {
	if r == nil {
		return nil
	}
	out := *r
	for i, v := range r.SectionScores {
		if v != nil {
			c := *v
			out.SectionScores[i] = &c
		}
	}
	if r.ExpertTotal != nil {
		t := *r.ExpertTotal
		out.ExpertTotal = &t
	}
	out.ItemOverrides = cloneMap(r.ItemOverrides)
	out.NarrativeOverrides = cloneMap(r.NarrativeOverrides)
	if r.CompletedAt != nil {
		c := *r.CompletedAt
		out.CompletedAt = &c
	}
	return &out
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ReviewMutation computes the next state of a review from the current one.
// current is nil when no review exists for the key. Returning a nil review
// deletes the row; returning the error aborts without writing.
type ReviewMutation func(current *ExpertReview) (*ExpertReview, error)

// RecomputeJob asks the worker pool to (re)compute one department's auto score.
type RecomputeJob struct {
	DepartmentID string
	AcademicYear string
}

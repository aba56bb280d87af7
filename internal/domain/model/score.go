package model

import "math"

// ItemScore is one auditable line of a section breakdown.
type ItemScore struct {
	ItemID       string  `json:"itemId"`
	Label        string  `json:"label"`
	InputSummary string  `json:"inputSummary"`
	AutoScore    float64 `json:"autoScore"`
	MaxScore     float64 `json:"maxScore"`
}

// SectionScore is the evaluated score of one section.
// CappedTotal = min(RawTotal, MaxPoints) and 0 <= CappedTotal <= MaxPoints.
type SectionScore struct {
	SectionID   string      `json:"sectionId"`
	Title       string      `json:"title"`
	RawTotal    float64     `json:"rawTotal"`
	CappedTotal float64     `json:"cappedTotal"`
	MaxPoints   float64     `json:"maxPoints"`
	Items       []ItemScore `json:"itemBreakdown"`
	Documents   int         `json:"documents"`
}

// DepartmentScoreSummary is the auto score of a department for one year.
// Total = sum of CappedTotal, bounded by MaxTotal.
type DepartmentScoreSummary struct {
	DepartmentID string         `json:"departmentId"`
	AcademicYear string         `json:"academicYear"`
	Sections     []SectionScore `json:"sections"`
	Total        float64        `json:"total"`
	MaxTotal     float64        `json:"maxTotal"`
}

// Round2 rounds to two decimals, the precision scores are reported at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds v to [0, max]. NaN becomes zero.
func Clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// RankingRow is one department of the ranking feed. RankingScore is the
// expert total when the department has a reviewed total, else the auto total.
type RankingRow struct {
	Rank         int        `json:"rank"`
	Department   Department `json:"dept"`
	AutoTotal    float64    `json:"autoTotal"`
	ExpertTotal  *float64   `json:"expertTotal,omitempty"`
	RankingScore float64    `json:"rankingScore"`
	Status       string     `json:"status"`
	IsLocked     bool       `json:"isLocked"`
	ReviewedBy   string     `json:"reviewedBy,omitempty"`
}

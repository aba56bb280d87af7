package scoring

import "github.com/okian/udrf/internal/domain/model"

// Aggregate sums section capped totals into a department summary bounded by
// maxTotal. It only reads its arguments.
func Aggregate(deptID, year string, sections []model.SectionScore, maxTotal float64) model.DepartmentScoreSummary {
	total := 0.0
	for _, s := range sections {
		total += s.CappedTotal
	}
	return model.DepartmentScoreSummary{
		DepartmentID: deptID,
		AcademicYear: year,
		Sections:     sections,
		Total:        model.Clamp(model.Round2(total), maxTotal),
		MaxTotal:     maxTotal,
	}
}

// SectionTotal returns the capped total of a section by id, or zero.
func SectionTotal(s model.DepartmentScoreSummary, sectionID string) float64 {
	for _, sec := range s.Sections {
		if sec.SectionID == sectionID {
			return sec.CappedTotal
		}
	}
	return 0
}

package scoring

import (
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// studentInputs binds the Section IV record to its items.
func studentInputs(raw model.RawData) bindings {
	s := raw.StudentSupport
	graduating := float64(s.GraduatingStudents.Int())
	return bindings{
		rubric.ItemPlacement:          {num: float64(s.StudentsPlaced.Int()), den: graduating},
		rubric.ItemHigherStudies:      {num: float64(s.HigherStudies.Int()), den: graduating},
		rubric.ItemCompetitiveExams:   {list: s.CompetitiveExams},
		rubric.ItemStudentAwards:      {list: s.StudentAwards},
		rubric.ItemScholarships:       {num: float64(s.ScholarshipRecipients.Int()), den: float64(s.TotalStudents.Int()), hasDen: true},
		rubric.ItemPassPercentage:     {num: float64(s.StudentsPassed.Int()), den: float64(s.StudentsAppeared.Int())},
		rubric.ItemStudentPublication: {list: s.StudentPublications},
		rubric.ItemMentoring:          {text: s.Mentoring},
		rubric.ItemStartups:           {list: s.Startups},
	}
}

// Package model contains domain models passed between layers: departments,
// the per-section raw records they submit, computed scores and expert reviews.
package model

import (
	"encoding/json"
	"errors"

	"github.com/okian/udrf/internal/domain/rubric"
)

// Department is the immutable reference entity owned by the roster system.
type Department struct {
	ID           string `json:"id" yaml:"id"`
	Code         string `json:"code" yaml:"code"`
	Name         string `json:"name" yaml:"name"`
	Category     string `json:"category" yaml:"category"`
	AcademicYear string `json:"academicYear" yaml:"academic_year"`
}

// FacultyOutput is the raw record of Section I.
type FacultyOutput struct {
	SanctionedPosts     Count `json:"sanctioned_posts"`
	FilledPosts         Count `json:"filled_posts"`
	FacultyWithPhD      Count `json:"faculty_with_phd"`
	JournalPublications List  `json:"journal_publications"`
	BooksChapters       List  `json:"books_chapters"`
	Patents             List  `json:"patents"`
	ResearchGrants      Money `json:"research_grants"`
	ConsultancyRevenue  Money `json:"consultancy_revenue"`
	Awards              List  `json:"awards"`
	PhDsAwarded         List  `json:"phds_awarded"`
	FDPsAttended        List  `json:"fdps_attended"`
	InvitedTalks        List  `json:"invited_talks"`
	ResearchFacilities  Text  `json:"research_facilities"`
	ResearchFellows     Count `json:"research_fellows"`
}

// NEPInitiatives is the raw record of Section II.
type NEPInitiatives struct {
	Initiatives              List  `json:"initiatives"`
	MOOCs                    List  `json:"moocs"`
	MultidisciplinaryCourses List  `json:"multidisciplinary_courses"`
	ApplicationsReceived     Count `json:"applications_received"`
	SeatsAvailable           Count `json:"seats_available"`
	StudentsEnrolled         Count `json:"students_enrolled"`
	ABCRegistered            Count `json:"abc_registered"`
	SkillCourses             List  `json:"skill_courses"`
	IKSNarrative             Text  `json:"iks_narrative"`
	StudentsWithInternship   Count `json:"students_with_internship"`
}

// Infrastructure holds the four independently scored sub-areas of III.4.
type Infrastructure struct {
	Classrooms   Text `json:"classrooms"`
	Laboratories Text `json:"laboratories"`
	Library      Text `json:"library"`
	ICT          Text `json:"ict"`
}

// Part returns the narrative of the named sub-area.
func (i Infrastructure) Part(name string) Text {
	switch name {
	case rubric.PartClassrooms:
		return i.Classrooms
	case rubric.PartLaboratories:
		return i.Laboratories
	case rubric.PartLibrary:
		return i.Library
	case rubric.PartICT:
		return i.ICT
	}
	return ""
}

// Governance is the raw record of Section III.
type Governance struct {
	ResultDeclarationDays Count          `json:"result_declaration_days"`
	BudgetAllocated       Amount         `json:"budget_allocated"`
	BudgetUtilised        Amount         `json:"budget_utilised"`
	CommitteeMeetings     List           `json:"committee_meetings"`
	Infrastructure        Infrastructure `json:"infrastructure"`
	FeedbackSystem        Text           `json:"feedback_system"`
	GreenPractices        Text           `json:"green_practices"`
	AlumniFunding         Money          `json:"alumni_funding"`
	CSRFunding            Money          `json:"csr_funding"`
	EGovernance           Text           `json:"e_governance"`
	StaffTraining         List           `json:"staff_training"`
}

// StudentSupport is the raw record of Section IV.
type StudentSupport struct {
	GraduatingStudents    Count `json:"graduating_students"`
	StudentsPlaced        Count `json:"students_placed"`
	HigherStudies         Count `json:"higher_studies"`
	CompetitiveExams      List  `json:"competitive_exams"`
	StudentAwards         List  `json:"student_awards"`
	TotalStudents         Count `json:"total_students"`
	ScholarshipRecipients Count `json:"scholarship_recipients"`
	StudentsAppeared      Count `json:"students_appeared"`
	StudentsPassed        Count `json:"students_passed"`
	StudentPublications   List  `json:"student_publications"`
	Mentoring             Text  `json:"mentoring"`
	Startups              List  `json:"startups"`
}

// Conferences is the raw record of Section V.
type Conferences struct {
	ConferencesOrganised        List `json:"conferences_organised"`
	Workshops                   List `json:"workshops"`
	MoUs                        List `json:"mous"`
	IndustryInteractions        List `json:"industry_interactions"`
	InternationalCollaborations List `json:"international_collaborations"`
	Outreach                    Text `json:"outreach"`
}

// Document is supporting-document metadata attached to a section.
type Document struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
}

// RawData is everything a department submitted for one academic year. A
// missing section decodes to its zero value.
type RawData struct {
	DepartmentID   string         `json:"department_id"`
	AcademicYear   string         `json:"academic_year"`
	FacultyOutput  FacultyOutput  `json:"faculty_output"`
	NEPInitiatives NEPInitiatives `json:"nep_initiatives"`
	Governance     Governance     `json:"governance"`
	StudentSupport StudentSupport `json:"student_support"`
	Conferences    Conferences    `json:"conferences"`
	Documents      []Document     `json:"documents,omitempty"`
}

// UnmarshalJSON decodes as much of the record as matches the schema. Values
// of the wrong JSON type are skipped and left at zero; only malformed JSON
// fails.
func (r *RawData) UnmarshalJSON(b []byte) error {
	type plain RawData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
	}
	*r = RawData(p)
	return nil
}

// DocumentsFor counts the documents attached to a section.
func (r RawData) DocumentsFor(section string) int {
	n := 0
	for _, d := range r.Documents {
		if d.Section == section {
			n++
		}
	}
	return n
}

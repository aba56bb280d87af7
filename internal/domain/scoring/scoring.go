// Package scoring turns a department's raw submission into its UDRF auto
// score. Evaluation is pure: the same rubric and raw record always produce the
// same summary, and the raw record is never modified.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
	"github.com/okian/udrf/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRubric replaces the default rubric. Invalid rubrics are ignored.
func WithRubric(r rubric.Rubric) Option {
	return func(e *Engine) {
		if r.Validate() == nil {
			e.rubric = r
		}
	}
}

// WithLogger sets the logger used for debug traces of fallback scoring.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Input is everything needed to score one department for one year.
type Input struct {
	Department model.Department
	Raw        model.RawData
}

// Scorer computes the auto score of a department.
type Scorer interface {
	// Score evaluates all five sections, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (model.DepartmentScoreSummary, error)
}

// sectionInputs extracts one section's item inputs from a raw record.
type sectionInputs func(raw model.RawData) bindings

// Engine implements Scorer over a rubric.
type Engine struct {
	rubric rubric.Rubric
	inputs map[rubric.SectionID]sectionInputs
	log    logger.Logger
}

// NewEngine creates an engine using the default UDRF rubric unless
// overridden by options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rubric: rubric.Default(),
		inputs: map[rubric.SectionID]sectionInputs{
			rubric.SectionFaculty:     facultyInputs,
			rubric.SectionNEP:         nepInputs,
			rubric.SectionGovernance:  governanceInputs,
			rubric.SectionStudent:     studentInputs,
			rubric.SectionConferences: conferencesInputs,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rubric returns the rubric the engine scores against.
func (e *Engine) Rubric() rubric.Rubric {
	return e.rubric
}

// Score computes the department score summary.
func (e *Engine) Score(ctx context.Context, in Input) (model.DepartmentScoreSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.DepartmentScoreSummary{}, fmt.Errorf("context cancelled: %w", err)
	}

	sections := make([]model.SectionScore, 0, len(e.rubric.Sections))
	for _, sec := range e.rubric.Sections {
		sections = append(sections, e.EvaluateSection(sec, in.Raw))
	}

	deptID, year := in.Department.ID, in.Department.AcademicYear
	if deptID == "" {
		deptID = in.Raw.DepartmentID
	}
	if year == "" {
		year = in.Raw.AcademicYear
	}
	summary := Aggregate(deptID, year, sections, e.rubric.TotalMax())

	if e.log != nil {
		e.log.Debug(ctx, "department scored",
			logger.String("department_id", deptID),
			logger.String("academic_year", year),
			logger.Float64("total", summary.Total))
	}
	return summary, nil
}

// EvaluateSection runs one section evaluator. Items the rubric lists but the
// evaluator has no input for score zero.
func (e *Engine) EvaluateSection(sec rubric.Section, raw model.RawData) model.SectionScore {
	var in bindings
	if fn, ok := e.inputs[sec.ID]; ok {
		in = fn(raw)
	}

	items := make([]model.ItemScore, 0, len(sec.Items))
	rawTotal := 0.0
	for _, it := range sec.Items {
		score := evaluate(it, in[it.ID], e.rubric)
		rawTotal += score.AutoScore
		items = append(items, score)
	}
	rawTotal = model.Round2(rawTotal)

	return model.SectionScore{
		SectionID:   string(sec.ID),
		Title:       sec.Title,
		RawTotal:    rawTotal,
		CappedTotal: model.Clamp(rawTotal, sec.MaxPoints),
		MaxPoints:   sec.MaxPoints,
		Items:       items,
		Documents:   raw.DocumentsFor(string(sec.ID)),
	}
}

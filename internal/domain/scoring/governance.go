package scoring

import (
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// governanceInputs binds the Section III record to its items.
func governanceInputs(raw model.RawData) bindings {
	g := raw.Governance
	days := g.ResultDeclarationDays.Int()
	return bindings{
		rubric.ItemResultDeclaration: {value: float64(days), reported: days > 0},
		rubric.ItemBudgetUtilisation: {num: g.BudgetUtilised.Float(), den: g.BudgetAllocated.Float(), hasDen: true},
		rubric.ItemCommitteeMeetings: {list: g.CommitteeMeetings},
		rubric.ItemInfrastructure:    {part: g.Infrastructure.Part},
		rubric.ItemFeedbackSystem:    {text: g.FeedbackSystem},
		rubric.ItemGreenPractices:    {text: g.GreenPractices},
		rubric.ItemAlumniFunding:     {money: g.AlumniFunding},
		rubric.ItemCSRFunding:        {money: g.CSRFunding},
		rubric.ItemEGovernance:       {text: g.EGovernance},
		rubric.ItemStaffTraining:     {list: g.StaffTraining},
	}
}

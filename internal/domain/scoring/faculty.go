package scoring

import (
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// facultyInputs binds the Section I record to its items.
func facultyInputs(raw model.RawData) bindings {
	f := raw.FacultyOutput
	filled := float64(f.FilledPosts.Int())
	return bindings{
		rubric.ItemFacultyPositions:   {num: filled, den: float64(f.SanctionedPosts.Int())},
		rubric.ItemFacultyPhD:         {num: float64(f.FacultyWithPhD.Int()), den: filled},
		rubric.ItemJournalPapers:      {list: f.JournalPublications},
		rubric.ItemBooksChapters:      {list: f.BooksChapters},
		rubric.ItemPatents:            {list: f.Patents},
		rubric.ItemResearchGrants:     {money: f.ResearchGrants},
		rubric.ItemConsultancy:        {money: f.ConsultancyRevenue},
		rubric.ItemFacultyAwards:      {list: f.Awards},
		rubric.ItemPhDsAwarded:        {list: f.PhDsAwarded},
		rubric.ItemFDPsAttended:       {list: f.FDPsAttended},
		rubric.ItemInvitedTalks:       {list: f.InvitedTalks},
		rubric.ItemResearchFacilities: {text: f.ResearchFacilities},
		rubric.ItemResearchFellows:    {num: float64(f.ResearchFellows.Int()), den: filled, hasDen: true},
	}
}

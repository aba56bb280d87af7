package scoring

import (
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// conferencesInputs binds the Section V record to its items.
func conferencesInputs(raw model.RawData) bindings {
	c := raw.Conferences
	return bindings{
		rubric.ItemConferences:   {list: c.ConferencesOrganised},
		rubric.ItemWorkshops:     {list: c.Workshops},
		rubric.ItemMoUs:          {list: c.MoUs},
		rubric.ItemIndustry:      {list: c.IndustryInteractions},
		rubric.ItemInternational: {list: c.InternationalCollaborations},
		rubric.ItemOutreach:      {text: c.Outreach},
	}
}

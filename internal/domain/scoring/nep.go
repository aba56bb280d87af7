package scoring

import (
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// nepInputs binds the Section II record to its items.
func nepInputs(raw model.RawData) bindings {
	n := raw.NEPInitiatives
	enrolled := float64(n.StudentsEnrolled.Int())
	return bindings{
		rubric.ItemNEPInitiatives:    {list: n.Initiatives},
		rubric.ItemMOOCs:             {list: n.MOOCs},
		rubric.ItemMultidisciplinary: {list: n.MultidisciplinaryCourses},
		rubric.ItemDemandRatio:       {num: float64(n.ApplicationsReceived.Int()), den: float64(n.SeatsAvailable.Int())},
		rubric.ItemABCRegistration:   {num: float64(n.ABCRegistered.Int()), den: enrolled},
		rubric.ItemSkillCourses:      {list: n.SkillCourses},
		rubric.ItemIKS:               {text: n.IKSNarrative},
		rubric.ItemInternships:       {num: float64(n.StudentsWithInternship.Int()), den: enrolled},
	}
}

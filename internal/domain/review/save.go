package review

import (
	"context"
	"strings"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// ActionDelete is the only recognised SaveRequest action.
const ActionDelete = "delete"

// SaveRequest is the payload of the review save endpoint. The expert comes
// from the caller's identity, never from the payload.
type SaveRequest struct {
	DepartmentID          string             `json:"deptId"`
	AcademicYear          string             `json:"academicYear"`
	ExpertScoresBySection []*float64         `json:"expertScoresBySection,omitempty"`
	ItemOverrides         map[string]float64 `json:"itemOverrides,omitempty"`
	NarrativeOverrides    map[string]float64 `json:"narrativeOverrides,omitempty"`
	Notes                 *string            `json:"notes,omitempty"`
	Action                string             `json:"action,omitempty"`
	Lock                  bool               `json:"lock,omitempty"`
	Unlock                bool               `json:"unlock,omitempty"`
}

// SavedScores echoes the persisted scores back to the caller.
type SavedScores struct {
	BySection   model.SectionScores `json:"expertScoresBySection"`
	ExpertTotal *float64            `json:"expertTotal"`
	Status      model.ReviewStatus  `json:"status"`
	IsLocked    bool                `json:"isLocked"`
}

// SaveResult is the response of the review save endpoint.
type SaveResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	ReviewID string       `json:"reviewId,omitempty"`
	Scores   *SavedScores `json:"scores,omitempty"`
}

// Key builds the review key for expertID.
func (r SaveRequest) Key(expertID string) model.ReviewKey {
	return model.ReviewKey{
		ExpertID:     strings.TrimSpace(expertID),
		DepartmentID: strings.TrimSpace(r.DepartmentID),
		AcademicYear: strings.TrimSpace(r.AcademicYear),
	}
}

// Save handles one call of the save endpoint. Lock and unlock short-circuit
// before any score processing; a delete action comes next; otherwise the
// scores are upserted.
func (s *Service) Save(ctx context.Context, expertID string, req SaveRequest) (SaveResult, error) {
	const op = "review.save"
	key := req.Key(expertID)
	if err := validateKey(op, key); err != nil {
		return SaveResult{}, err
	}

	switch {
	case req.Lock && req.Unlock:
		return SaveResult{}, apperr.NewKind(op, apperr.ErrValidation, "lock and unlock are mutually exclusive")
	case req.Lock:
		r, err := s.Lock(ctx, key)
		if err != nil {
			return SaveResult{}, err
		}
		return result("review locked", r), nil
	case req.Unlock:
		r, err := s.Unlock(ctx, key)
		if err != nil {
			return SaveResult{}, err
		}
		return result("review unlocked", r), nil
	}

	if action := strings.TrimSpace(req.Action); action != "" {
		if !strings.EqualFold(action, ActionDelete) {
			return SaveResult{}, apperr.Newf(op, apperr.ErrValidation, "unknown action %q", req.Action)
		}
		removed, err := s.Delete(ctx, key)
		if err != nil {
			return SaveResult{}, err
		}
		if !removed {
			return SaveResult{Success: true, Message: "no review to delete"}, nil
		}
		return SaveResult{Success: true, Message: "review deleted"}, nil
	}

	scores, err := toScores(op, req)
	if err != nil {
		return SaveResult{}, err
	}
	r, err := s.Upsert(ctx, key, scores)
	if err != nil {
		return SaveResult{}, err
	}
	return result("review saved", r), nil
}

func toScores(op string, req SaveRequest) (Scores, error) {
	if len(req.ExpertScoresBySection) != rubric.SectionCount {
		return Scores{}, apperr.Newf(op, apperr.ErrValidation,
			"expertScoresBySection must have %d entries, got %d", rubric.SectionCount, len(req.ExpertScoresBySection))
	}
	var out Scores
	copy(out.BySection[:], req.ExpertScoresBySection)
	out.ItemOverrides = req.ItemOverrides
	out.NarrativeOverrides = req.NarrativeOverrides
	out.Notes = req.Notes
	return out, nil
}

func result(msg string, r *model.ExpertReview) SaveResult {
	return SaveResult{
		Success:  true,
		Message:  msg,
		ReviewID: r.ID,
		Scores: &SavedScores{
			BySection:   r.SectionScores,
			ExpertTotal: r.ExpertTotal,
			Status:      r.Status,
			IsLocked:    r.IsLocked,
		},
	}
}

// ToScores converts an administrative payload into Scores using the same
// shape checks as Save.
func ToScores(req SaveRequest) (Scores, error) {
	return toScores("review.admin_update", req)
}

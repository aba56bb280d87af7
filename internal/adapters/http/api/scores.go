package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/udrf/internal/domain/model"
)

// ScoresDependencies defines the interface for score queries.
type ScoresDependencies interface {
	ComputeDepartmentScores(ctx context.Context, deptID, year string) (model.DepartmentScoreSummary, error)
}

// ScoresHandler handles department score requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleGetScores handles GET /departments/{deptID}/scores?year=Y requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	deptID := chi.URLParam(r, "deptID")
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	summary, err := h.deps.ComputeDepartmentScores(r.Context(), deptID, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

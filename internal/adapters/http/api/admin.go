package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/pkg/logger"
)

// AdminDependencies defines the interface for administrative operations.
type AdminDependencies interface {
	AdminUpdate(ctx context.Context, expertID string, req review.SaveRequest) (*model.ExpertReview, error)
	EnqueueRecompute(ctx context.Context, category, year string) (int, error)
}

// AdminHandler handles administrator-only requests.
type AdminHandler struct {
	deps   AdminDependencies
	schema *jsonschema.Schema
	log    logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, schema *jsonschema.Schema, log logger.Logger) *AdminHandler {
	return &AdminHandler{deps: deps, schema: schema, log: log}
}

type recomputeResponse struct {
	Success bool   `json:"success"`
	Queued  int    `json:"queued"`
	Message string `json:"message,omitempty"`
}

// HandleUpdateReview handles PUT /admin/reviews requests. The body names
// the expert whose review is edited.
func (h *AdminHandler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_update"
	body, err := decodeSave(r, h.schema)
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(body.ExpertID) == "" {
		writeError(w, apperr.NewKind(op, ErrBadRequest, "expertId is required"))
		return
	}
	rev, err := h.deps.AdminUpdate(r.Context(), body.ExpertID, body.SaveRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	admin := ""
	if c, ok := ClaimsFrom(r.Context()); ok {
		admin = c.Sub
	}
	h.log.Info(r.Context(), "review updated by administrator",
		logger.String("admin", admin),
		logger.String("expert_id", rev.ExpertID),
		logger.String("department_id", rev.DepartmentID),
		logger.String("academic_year", rev.AcademicYear))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "review updated", Data: rev})
}

// HandleRecompute handles POST /admin/recompute?category=C&year=Y requests.
// A full queue answers 429 with the number of jobs queued so far.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := h.deps.EnqueueRecompute(r.Context(), strings.TrimSpace(q.Get("category")), strings.TrimSpace(q.Get("year")))
	if err != nil {
		status, _ := statusOf(err)
		if status == http.StatusTooManyRequests {
			writeJSON(w, status, recomputeResponse{Success: false, Queued: n, Message: messageOf(err, status)})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, recomputeResponse{Success: true, Queued: n})
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/pkg/logger"
)

// HeaderIdempotencyKey makes repeated save requests no-ops.
const HeaderIdempotencyKey = "Idempotency-Key"

// ReviewsDependencies defines the interface for expert review operations.
type ReviewsDependencies interface {
	GetReview(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error)
	ListReviews(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error)
	SaveReview(ctx context.Context, expertID, idempotencyKey string, req review.SaveRequest) (review.SaveResult, error)
}

// ReviewsHandler handles the caller's expert reviews.
type ReviewsHandler struct {
	deps   ReviewsDependencies
	schema *jsonschema.Schema
	log    logger.Logger
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps ReviewsDependencies, schema *jsonschema.Schema, log logger.Logger) *ReviewsHandler {
	return &ReviewsHandler{deps: deps, schema: schema, log: log}
}

// HandleGet handles GET /reviews/{deptID}?year=Y requests.
func (h *ReviewsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	expert, err := expertID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	key := model.ReviewKey{
		ExpertID:     expert,
		DepartmentID: chi.URLParam(r, "deptID"),
		AcademicYear: strings.TrimSpace(r.URL.Query().Get("year")),
	}
	rev, err := h.deps.GetReview(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// HandleList handles GET /reviews?year=Y requests.
func (h *ReviewsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	expert, err := expertID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reviews, err := h.deps.ListReviews(r.Context(), expert, strings.TrimSpace(r.URL.Query().Get("year")))
	if err != nil {
		writeError(w, err)
		return
	}
	if reviews == nil {
		reviews = []*model.ExpertReview{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HandleSave handles POST /reviews requests: delete, lock and unlock
// short-circuit before the scores are upserted.
func (h *ReviewsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, nil)
}

// HandleLock handles POST /reviews/lock requests.
func (h *ReviewsHandler) HandleLock(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, func(req *review.SaveRequest) { req.Lock, req.Unlock = true, false })
}

// HandleUnlock handles POST /reviews/unlock requests.
func (h *ReviewsHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, func(req *review.SaveRequest) { req.Lock, req.Unlock = false, true })
}

func (h *ReviewsHandler) save(w http.ResponseWriter, r *http.Request, force func(*review.SaveRequest)) {
	expert, err := expertID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := decodeSave(r, h.schema)
	if err != nil {
		writeError(w, err)
		return
	}
	req := body.SaveRequest
	if force != nil {
		force(&req)
	}

	res, err := h.deps.SaveReview(r.Context(), expert, r.Header.Get(HeaderIdempotencyKey), req)
	if err != nil {
		status, code := statusOf(err)
		if status >= http.StatusInternalServerError {
			h.log.Error(r.Context(), "review save failed",
				logger.String("expert_id", expert),
				logger.String("department_id", req.DepartmentID),
				logger.String("code", code),
				logger.Error(err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	ComputeDepartmentScores(ctx context.Context, deptID, year string) (model.DepartmentScoreSummary, error)
	Rankings(ctx context.Context, category, year, expertID string) ([]model.RankingRow, error)
	EnqueueRecompute(ctx context.Context, category, year string) (int, error)

	GetReview(ctx context.Context, key model.ReviewKey) (*model.ExpertReview, error)
	ListReviews(ctx context.Context, expertID, year string) ([]*model.ExpertReview, error)
	SaveReview(ctx context.Context, expertID, idempotencyKey string, req review.SaveRequest) (review.SaveResult, error)
	AdminUpdate(ctx context.Context, expertID string, req review.SaveRequest) (*model.ExpertReview, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	auth    *Authenticator
	origins []string
	timeout time.Duration
	log     logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	scoresHandler  *ScoresHandler
	reviewsHandler *ReviewsHandler
	rankingHandler *RankingsHandler
	adminHandler   *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, auth *Authenticator, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		auth:    auth,
		timeout: 30 * time.Second,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	schema := mustSaveSchema()
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.scoresHandler = NewScoresHandler(deps)
	s.reviewsHandler = NewReviewsHandler(deps, schema, s.log)
	s.rankingHandler = NewRankingsHandler(deps)
	s.adminHandler = NewAdminHandler(deps, schema, s.log)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", HeaderIdempotencyKey},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.With(s.instrument("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Middleware)

		pr.With(s.instrument("stats")).Get("/stats", s.statsHandler.HandleStats)
		pr.With(s.instrument("scores")).Get("/departments/{deptID}/scores", s.scoresHandler.HandleGetScores)

		pr.Route("/reviews", func(rr chi.Router) {
			rr.With(s.instrument("reviews_list")).Get("/", s.reviewsHandler.HandleList)
			rr.With(s.instrument("reviews_save")).Post("/", s.reviewsHandler.HandleSave)
			rr.With(s.instrument("reviews_lock")).Post("/lock", s.reviewsHandler.HandleLock)
			rr.With(s.instrument("reviews_unlock")).Post("/unlock", s.reviewsHandler.HandleUnlock)
			rr.With(s.instrument("reviews_get")).Get("/{deptID}", s.reviewsHandler.HandleGet)
		})

		pr.With(s.instrument("rankings")).Get("/rankings", s.rankingHandler.HandleGetRankings)
		pr.With(s.instrument("rankings_export")).Get("/rankings/export.xlsx", s.rankingHandler.HandleExport)

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(RequireRole(RoleAdmin))
			ar.With(s.instrument("admin_reviews")).Put("/reviews", s.adminHandler.HandleUpdateReview)
			ar.With(s.instrument("admin_recompute")).Post("/recompute", s.adminHandler.HandleRecompute)
		})
	})
}

// Handler returns a chi router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// envelope is the response shape of every mutation and every error.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status code and writes the error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeJSON(w, status, envelope{Success: false, Message: messageOf(err, status), Code: code})
}

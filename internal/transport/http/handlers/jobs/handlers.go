package jobshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workshop/internal/platform/jobs"
	"workshop/internal/transport/http/api"
	"workshop/internal/transport/http/middleware"
	"workshop/internal/transport/http/shared"
)

type Handler struct {
	Jobs *jobs.Service
}

func NewHandler(service *jobs.Service) *Handler {
	return &Handler{Jobs: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/runs", h.handleRuns)
		r.Post("/report-export", h.handleReportExport)
	})
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Jobs.Runs(), middleware.GetRequestID(r.Context()))
}

// handleReportExport runs the month-to-date export synchronously so the
// caller gets the written file back.
func (h *Handler) handleReportExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobReportExport, func(ctx context.Context) (any, error) {
		return h.Jobs.ExportMonthToDate(ctx)
	})
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Created(w, result, reqID)
}

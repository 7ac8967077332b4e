package reportshandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/reports"
	"workshop/internal/export"
	"workshop/internal/transport/http/api"
	"workshop/internal/transport/http/middleware"
	"workshop/internal/transport/http/shared"
)

const keepAliveInterval = 25 * time.Second

type ExportRecorder interface {
	RecordExport(format string)
}

type Handler struct {
	Reports   *reports.Service
	Formatter export.Formatter
	Metrics   ExportRecorder
	Logger    *zap.Logger
}

func NewHandler(service *reports.Service, formatter export.Formatter, metrics ExportRecorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Reports: service, Formatter: formatter, Metrics: metrics, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermViewReports)).Get("/", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermViewReports)).Get("/export", h.handleExport)
		r.With(middleware.RequirePermission(auth.PermViewReports)).Get("/employees", h.handleEmployeeReport)
		r.With(middleware.RequirePermission(auth.PermViewReports)).Get("/employees/export", h.handleEmployeeExport)
		r.With(middleware.RequireAuth).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequireAuth).Get("/dashboard/stream", h.handleDashboardStream)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	req, ok := parseRequest(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	report, err := h.Reports.Generate(r.Context(), actor, req)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, report, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	req, ok := parseRequest(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	report, err := h.Reports.Generate(r.Context(), actor, req)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	h.writeExport(w, r, report, format)
}

func (h *Handler) handleEmployeeReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	report, err := h.Reports.EmployeeReport(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, report, reqID)
}

func (h *Handler) handleEmployeeExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	report, err := h.Reports.EmployeeReport(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	h.writeExport(w, r, report, format)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	summary, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, summary, reqID)
}

// handleDashboardStream pushes a fresh dashboard as a server-sent event
// every time the underlying records change.
func (h *Handler) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported", reqID)
		return
	}
	updates, err := h.Reports.WatchDashboard(r.Context())
	if err != nil {
		h.Logger.Warn("dashboard stream unavailable", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusServiceUnavailable, "stream_unavailable", "live dashboard is not available", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case summary, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(summary)
			if err != nil {
				h.Logger.Error("dashboard encode failed", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) writeExport(w http.ResponseWriter, r *http.Request, report reports.Report, format export.Format) {
	reqID := middleware.GetRequestID(r.Context())
	renderer, err := export.New(format, h.Formatter)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		shared.WriteError(w, fmt.Errorf("render %s export: %w", format, err), reqID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordExport(string(format))
	}

	name := export.FileName(report.Meta.Kind, format, report.Meta.GeneratedAt)
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func parseRequest(w http.ResponseWriter, r *http.Request) (reports.Request, bool) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	v := shared.NewValidator()
	v.Required("kind", query.Get("kind"))
	req := reports.Request{
		Kind: reports.Kind(query.Get("kind")),
		Range: reports.DateRange{
			From: v.Date("from", query.Get("from")),
			To:   v.Date("to", query.Get("to")),
		},
		EmployeeID: query.Get("employeeId"),
		Mode:       reports.SummaryMode(query.Get("mode")),
	}
	if v.Reject(w, reqID) {
		return reports.Request{}, false
	}
	return req, true
}

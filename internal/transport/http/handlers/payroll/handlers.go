package payrollhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
	"workshop/internal/domain/reports"
	"workshop/internal/transport/http/api"
	"workshop/internal/transport/http/middleware"
	"workshop/internal/transport/http/shared"
)

const maxPageSize = 500

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

type productionRequest struct {
	EmployeeRef   string `json:"employeeRef"`
	Date          string `json:"date"`
	Count         int    `json:"count"`
	ContainerSize string `json:"containerSize"`
	ProcessType   string `json:"processType"`
}

type paymentRequest struct {
	EmployeeRef string          `json:"employeeRef"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes"`
}

type costRequest struct {
	Count         int    `json:"count"`
	ContainerSize string `json:"containerSize"`
	ProcessType   string `json:"processType"`
}

type costResponse struct {
	Multiplier int64           `json:"multiplier"`
	Cost       decimal.Decimal `json:"cost"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListEmployees)
		r.Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermCreate)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequirePermission(auth.PermUpdate)).Put("/{employeeID}", h.handleUpdateEmployee)
		r.With(middleware.RequirePermission(auth.PermDelete)).Delete("/{employeeID}", h.handleDeleteEmployee)
	})
	r.Route("/production", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListProduction)
		r.Post("/cost", h.handleCostPreview)
		r.Get("/{logID}", h.handleGetProduction)
		r.With(middleware.RequirePermission(auth.PermCreate)).Post("/", h.handleCreateProduction)
		r.With(middleware.RequirePermission(auth.PermUpdate)).Put("/{logID}", h.handleUpdateProduction)
		r.With(middleware.RequirePermission(auth.PermDelete)).Delete("/{logID}", h.handleDeleteProduction)
	})
	r.Route("/payments", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListPayments)
		r.Get("/{paymentID}", h.handleGetPayment)
		r.With(middleware.RequirePermission(auth.PermCreate)).Post("/", h.handleCreatePayment)
		r.With(middleware.RequirePermission(auth.PermUpdate)).Put("/{paymentID}", h.handleUpdatePayment)
		r.With(middleware.RequirePermission(auth.PermDelete)).Delete("/{paymentID}", h.handleDeletePayment)
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, shared.Page(employees, shared.ParsePagination(r, maxPageSize)), reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employee, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, employee, reqID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	var payload payroll.EmployeeInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	employee, err := h.Service.CreateEmployee(r.Context(), actor, payload)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Created(w, employee, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	var payload payroll.EmployeeInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	id := chi.URLParam(r, "employeeID")
	employee, err := h.Service.UpdateEmployee(r.Context(), actor, id, payload)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, employee, reqID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Service.DeleteEmployee(r.Context(), actor, id); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListProduction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	window := reports.DateRange{
		From: v.Date("from", r.URL.Query().Get("from")),
		To:   v.Date("to", r.URL.Query().Get("to")),
	}
	if v.Reject(w, reqID) {
		return
	}
	logs, err := h.Service.ListProduction(r.Context())
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	logs = reports.FilterByEmployee(reports.FilterByDate(logs, window), r.URL.Query().Get("employeeId"))
	api.Success(w, shared.Page(logs, shared.ParsePagination(r, maxPageSize)), reqID)
}

func (h *Handler) handleGetProduction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	log, err := h.Service.GetProduction(r.Context(), chi.URLParam(r, "logID"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, log, reqID)
}

func (h *Handler) handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodeProduction(w, r)
	if !ok {
		return
	}
	log, err := h.Service.CreateProduction(r.Context(), actor, in)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Created(w, log, reqID)
}

func (h *Handler) handleUpdateProduction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodeProduction(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "logID")
	log, err := h.Service.UpdateProduction(r.Context(), actor, id, in)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, log, reqID)
}

func (h *Handler) handleDeleteProduction(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "logID")
	if err := h.Service.DeleteProduction(r.Context(), actor, id); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.NoContent(w)
}

// handleCostPreview prices an entry before it is saved.
func (h *Handler) handleCostPreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload costRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	size := payroll.ContainerSize(payload.ContainerSize)
	process := payroll.ProcessType(payload.ProcessType)
	if err := payroll.ValidateCost(payload.Count, size, process); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, costResponse{
		Multiplier: payroll.Multiplier(size, process),
		Cost:       payroll.CalculateCost(payload.Count, size, process),
	}, reqID)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	window := reports.DateRange{
		From: v.Date("from", r.URL.Query().Get("from")),
		To:   v.Date("to", r.URL.Query().Get("to")),
	}
	if v.Reject(w, reqID) {
		return
	}
	payments, err := h.Service.ListPayments(r.Context())
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	payments = reports.FilterByEmployee(reports.FilterByDate(payments, window), r.URL.Query().Get("employeeId"))
	api.Success(w, shared.Page(payments, shared.ParsePagination(r, maxPageSize)), reqID)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	payment, err := h.Service.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, payment, reqID)
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodePayment(w, r)
	if !ok {
		return
	}
	payment, err := h.Service.CreatePayment(r.Context(), actor, in)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Created(w, payment, reqID)
}

func (h *Handler) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodePayment(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "paymentID")
	payment, err := h.Service.UpdatePayment(r.Context(), actor, id, in)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, payment, reqID)
}

func (h *Handler) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "paymentID")
	if err := h.Service.DeletePayment(r.Context(), actor, id); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.NoContent(w)
}

func decodeProduction(w http.ResponseWriter, r *http.Request) (payroll.ProductionInput, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload productionRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return payroll.ProductionInput{}, false
	}
	v := shared.NewValidator()
	date := v.Date("date", payload.Date)
	if v.Reject(w, reqID) {
		return payroll.ProductionInput{}, false
	}
	return payroll.ProductionInput{
		EmployeeRef:   payload.EmployeeRef,
		Date:          date,
		Count:         payload.Count,
		ContainerSize: payroll.ContainerSize(payload.ContainerSize),
		ProcessType:   payroll.ProcessType(payload.ProcessType),
	}, true
}

func decodePayment(w http.ResponseWriter, r *http.Request) (payroll.PaymentInput, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload paymentRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return payroll.PaymentInput{}, false
	}
	v := shared.NewValidator()
	date := v.Date("date", payload.Date)
	if v.Reject(w, reqID) {
		return payroll.PaymentInput{}, false
	}
	return payroll.PaymentInput{
		EmployeeRef: payload.EmployeeRef,
		Date:        date,
		Amount:      payload.Amount,
		Notes:       payload.Notes,
	}, true
}

package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"workshop/internal/domain/auth"
	"workshop/internal/transport/http/api"
	"workshop/internal/transport/http/middleware"
	"workshop/internal/transport/http/shared"
)

type Handler struct {
	Users *auth.Service
}

func NewHandler(users *auth.Service) *Handler {
	return &Handler{Users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  auth.UserView `json:"user"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	r.With(middleware.RequireAuth).Put("/me", h.handleUpdateMe)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Delete("/{userID}", h.handleDeleteUser)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email)
	v.Required("password", payload.Password)
	if v.Reject(w, reqID) {
		return
	}

	token, user, err := h.Users.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, loginResponse{Token: token, User: user.View()}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	user, err := h.Users.Profile(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, user.View(), reqID)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload auth.ProfileInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	user, err := h.Users.UpdateProfile(r.Context(), actor, payload)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Success(w, user.View(), reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	users, err := h.Users.ListUsers(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	views := make([]auth.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	api.Success(w, views, reqID)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	var payload auth.NewUserInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	user, err := h.Users.CreateUser(r.Context(), actor, payload)
	if err != nil {
		shared.WriteError(w, err, reqID)
		return
	}
	api.Created(w, user.View(), reqID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "userID")
	if err := h.Users.DeleteUser(r.Context(), actor, id); err != nil {
		shared.WriteError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.NoContent(w)
}

package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

// Handler exposes the account operations over HTTP. Each method maps the
// service's result or typed failure onto an explicit status code; there is
// no catch-all.
type Handler interface {
	SignUp(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Read(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// writeServiceError maps the error taxonomy onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrInvalidID):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
	default:
		// Storage and decode failures are both internal conditions
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// SignUp registers a new account and responds with the assigned id.
func (h *HandlerImpl) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "SignUp"))

	var u api.User
	if err := api.DecodeJSONBody(w, r, &u); err != nil {
		l.WarnContext(ctx, "Invalid sign-up payload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.userService.SignUp(ctx, u)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "User creation failed")
		return
	}

	api.WriteEnvelope(w, r, http.StatusCreated, "User created successfully", api.SignUpResponse{ID: id})
}

// Login authenticates a username/password pair. Wrong credentials and unknown
// usernames are both reported as an unsuccessful envelope with HTTP 200.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req api.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid login payload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.userService.Login(ctx, req.Username, req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !ok {
		api.WriteJSONResponse(w, r, http.StatusOK, api.Response{
			Status:     false,
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid credentials",
		})
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, "Logged in successfully", nil)
}

// Read fetches an account by id. The password hash never leaves the service
// boundary in the external representation.
func (h *HandlerImpl) Read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Read"))

	id := chi.URLParam(r, "id")
	if id == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "No ID found")
		return
	}

	u, err := h.userService.Read(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		writeServiceError(w, r, err)
		return
	}
	if u == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		return
	}

	u.Password = ""
	api.WriteEnvelope(w, r, http.StatusOK, "User found", u)
}

// Update replaces the stored document with the caller-supplied state and
// responds with the previous document.
func (h *HandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Update"))

	id := chi.URLParam(r, "id")
	if id == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "No ID found")
		return
	}

	var u api.User
	if err := api.DecodeJSONBody(w, r, &u); err != nil {
		l.WarnContext(ctx, "Invalid update payload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	prev, err := h.userService.Update(ctx, id, u)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		writeServiceError(w, r, err)
		return
	}
	if prev == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		return
	}

	prev.Password = ""
	api.WriteEnvelope(w, r, http.StatusOK, "User updated successfully", prev)
}

// Delete removes an account by id.
func (h *HandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Delete"))

	id := chi.URLParam(r, "id")
	if id == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "No ID found")
		return
	}

	removed, err := h.userService.Delete(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		writeServiceError(w, r, err)
		return
	}
	if removed == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		return
	}

	api.WriteEnvelope(w, r, http.StatusOK, "User deleted successfully", nil)
}

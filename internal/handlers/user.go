package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides the generic CRUD endpoints over user resources.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UserRouter registers every /users route on the given router.
func UserRouter(
	r chi.Router,
	users *services.UserService,
	identity *services.IdentityService,
	avatars *services.AvatarService,
) {
	userHandler := NewUserHandler(users)
	authHandler := NewAuthHandler(identity)
	avatarHandler := NewAvatarHandler(avatars)

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Get("/", userHandler.ListUsers)
	r.Post("/", userHandler.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", userHandler.GetUser)
		r.Patch("/", userHandler.PatchUser)
		r.Delete("/", userHandler.DeleteUser)
		r.Get("/identity", authHandler.Identity)
		r.Put("/avatar", avatarHandler.PutAvatar)
		r.Get("/avatar", avatarHandler.GetAvatar)
		r.Delete("/avatar", avatarHandler.DeleteAvatar)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// CreateUser creates a user through the generic resource path. The password
// is hashed by the service before persistence, same as registration.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Username == "" || req.FirstName == "" || req.LastName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.users.Create(r.Context(), userFromRequest(req), req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// PatchUser applies a partial field map onto the user.
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.users.Patch(r.Context(), id, fields)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbiddenField):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrUnknownField),
			errors.Is(err, services.ErrInvalidFieldValue):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicateUsername):
			writeError(w, http.StatusConflict, "username already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, updated)
}

// DeleteUser removes the user and returns the remaining list.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicateUsername):
			writeError(w, http.StatusConflict, "delete conflicts with existing data")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}

	remaining, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusAccepted, remaining)
}

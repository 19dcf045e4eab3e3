package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/accountsvc/apiserver/internal/services"
	"github.com/accountsvc/apiserver/internal/store"
	"github.com/accountsvc/apiserver/types"
)

// AuthHandler provides the registration, login and identity endpoints.
type AuthHandler struct {
	identity *services.IdentityService
}

// NewAuthHandler constructs an AuthHandler with the provided identity service.
func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.identity.Register(r.Context(), req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and returns an access token. Unknown usernames
// and wrong passwords surface with the same status and message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	token, err := h.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusForbidden, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "login successful",
		AccessToken: token,
	})
}

// Identity resolves the bearer token to the current account.
func (h *AuthHandler) Identity(w http.ResponseWriter, r *http.Request) {
	if _, err := parseUserID(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	name, err := h.identity.Lookup(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpired),
			errors.Is(err, auth.ErrBadSignature),
			errors.Is(err, auth.ErrMalformed):
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "identity not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		}
		return
	}

	writeJSON(w, http.StatusOK, IdentityResponse{
		Message: "authenticated",
		Name:    name,
	})
}

type RegisterRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

type IdentityResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// userFromRequest is shared by the register and create endpoints.
func userFromRequest(req RegisterRequest) types.User {
	return types.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

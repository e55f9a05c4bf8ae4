package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/slim-api/auth"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/logging"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// userInfo is the account summary returned with a token pair
type userInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type sessionResponse struct {
	auth.TokenPair
	User userInfo `json:"user"`
}

func newSession(u *entities.User, pair auth.TokenPair) sessionResponse {
	return sessionResponse{
		TokenPair: pair,
		User: userInfo{
			ID:      u.ID,
			Name:    u.DisplayName(),
			Email:   u.Email,
			IsAdmin: u.IsAdmin,
		},
	}
}

// Signup creates a patient account
func (h *HTTPHandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	for _, err := range []error{
		h.validator.ValidateEmail(req.Email),
		h.validator.ValidatePassword(req.Password),
		h.validator.ValidateName(req.Name),
	} {
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	u, pair, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, auth.ErrEmailTaken) {
		h.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.respondInternalError(w, r, "Failed to create account", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusCreated, "Account created successfully", newSession(u, pair))
}

// Signin exchanges credentials for a token pair
func (h *HTTPHandlerImpl) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, pair, err := h.auth.Signin(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logging.Warn("Failed signin attempt", "remote_addr", r.RemoteAddr)
		h.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.respondInternalError(w, r, "Failed to sign in", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "Signed in successfully", newSession(u, pair))
}

// Refresh rotates a refresh token
func (h *HTTPHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	u, pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		h.RespondWithError(w, http.StatusUnauthorized, "Refresh token expired")
		return
	case errors.Is(err, auth.ErrInvalidToken):
		h.RespondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	case err != nil:
		h.respondInternalError(w, r, "Failed to refresh session", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "Token refreshed", newSession(u, pair))
}

// Logout revokes a refresh token
func (h *HTTPHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		h.respondInternalError(w, r, "Failed to log out", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the authenticated account
func (h *HTTPHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	u, err := h.store.GetUser(r.Context(), claims.Subject)
	if err != nil {
		h.respondStoreError(w, r, "User", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "", u)
}

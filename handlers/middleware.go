package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/slim-api/auth"
	"github.com/giygas/slim-api/logging"
)

// RequireAuth rejects requests without a valid bearer access token and
// stores its claims in the request context.
func (h *HTTPHandlerImpl) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			h.RespondWithError(w, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := h.auth.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				h.RespondWithError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			logging.Warn("Rejected access token", "path", r.URL.Path, "error", err)
			h.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin must run after RequireAuth
func (h *HTTPHandlerImpl) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			h.RespondWithError(w, http.StatusUnauthorized, "Access token required")
			return
		}
		if !claims.Admin {
			logging.Warn("Admin route refused", "user_id", claims.Subject, "path", r.URL.Path)
			h.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

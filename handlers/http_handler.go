// Package handlers provides the HTTP handlers of the slim API: authentication,
// user administration, demande review, classifier proxy and public intake.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/slim-api/auth"
	"github.com/giygas/slim-api/catalogue"
	"github.com/giygas/slim-api/interfaces"
	"github.com/giygas/slim-api/store"
)

// OnboardingBonusXP is credited once the onboarding analysis succeeds
const OnboardingBonusXP = 50

// Deps are the collaborators of the handlers
type Deps struct {
	Store     interfaces.Store
	Auth      *auth.Service
	Predictor interfaces.Predictor
	Catalogue *catalogue.Catalogue
	Validator interfaces.Validator
	Health    interfaces.HealthChecker
	State     interfaces.StateStore

	// ExposeErrors adds internal error text to 500 responses (development only)
	ExposeErrors bool
	Now          func() time.Time
}

// HTTPHandlerImpl serves every API endpoint
type HTTPHandlerImpl struct {
	store        interfaces.Store
	auth         *auth.Service
	predictor    interfaces.Predictor
	catalogue    *catalogue.Catalogue
	validator    interfaces.Validator
	health       interfaces.HealthChecker
	state        interfaces.StateStore
	exposeErrors bool
	now          func() time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(d Deps) *HTTPHandlerImpl {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &HTTPHandlerImpl{
		store:        d.Store,
		auth:         d.Auth,
		predictor:    d.Predictor,
		catalogue:    d.Catalogue,
		validator:    d.Validator,
		health:       d.Health,
		state:        d.State,
		exposeErrors: d.ExposeErrors,
		now:          now,
	}
}

// HealthCheck reports database and classifier status
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck(r.Context())

	uptime := h.state.Uptime()
	details["status"] = status
	details["timestamp"] = h.now().UTC().Format(time.RFC3339)
	details["uptime"] = formatUptimeHuman(uptime)

	h.RespondWithJSON(w, httpStatus, Response{
		Success: httpStatus < http.StatusInternalServerError,
		Message: "Service is " + status,
		Data:    details,
	})
}

// NotFound answers unknown routes
func (h *HTTPHandlerImpl) NotFound(w http.ResponseWriter, r *http.Request) {
	h.RespondWithError(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.Path+" not found")
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *HTTPHandlerImpl) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.RespondWithError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}

// respondStoreError maps store errors to responses; subject names the missing record
func (h *HTTPHandlerImpl) respondStoreError(w http.ResponseWriter, r *http.Request, subject string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.RespondWithError(w, http.StatusNotFound, subject+" not found")
	case errors.Is(err, store.ErrInvalidStatus):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondInternalError(w, r, "Failed to load "+strings.ToLower(subject), err)
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/auth"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/listing"
)

type userListResponse struct {
	Users      []entities.UserSummary `json:"users"`
	Pagination listing.Pagination     `json:"pagination"`
}

// ListUsers serves the paginated administration user list
func (h *HTTPHandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query())
	if q.Search != "" {
		if err := h.validator.ValidateInput(q.Search); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.respondInternalError(w, r, "Failed to list users", err)
		return
	}

	rows := make([]entities.UserSummary, len(users))
	for i := range users {
		rows[i] = listing.Summarize(&users[i])
	}
	page, pagination := listing.Apply(rows, q)

	h.RespondWithSuccess(w, http.StatusOK, "", userListResponse{Users: page, Pagination: pagination})
}

// userFromPath loads the user named by the {id} URL parameter. It writes
// the error response and returns nil when the user cannot be served.
func (h *HTTPHandlerImpl) userFromPath(w http.ResponseWriter, r *http.Request, param string) *entities.User {
	id := chi.URLParam(r, param)
	if err := h.validator.ValidateID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return nil
	}

	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, "User", err)
		return nil
	}
	return u
}

// userDetails is a user with its derived profile completeness
type userDetails struct {
	*entities.User
	ProfileCompleteness ai.DataCompleteness `json:"profileCompleteness"`
}

// GetUser returns one user
func (h *HTTPHandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	u := h.userFromPath(w, r, "id")
	if u == nil {
		return
	}
	h.RespondWithSuccess(w, http.StatusOK, "", userDetails{User: u, ProfileCompleteness: ai.Completeness(u)})
}

// userDemandeView presents an onboarded user the way the dashboard shows demandes
type userDemandeView struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"userId"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	Source           string                 `json:"source"`
	Status           entities.DemandeStatus `json:"status"`
	SubmittedAt      time.Time              `json:"dateSubmission"`
	Patient          ai.Payload             `json:"patient"`
	Profiles         []entities.Prediction  `json:"profiles"`
	AnalyzedAt       *time.Time             `json:"analyzedAt,omitempty"`
	MissingData      []string               `json:"missingData"`
	DataCompleteness ai.DataCompleteness    `json:"dataCompleteness"`
	RequestedPlan    bool                   `json:"requestedPlan"`
	AssignedPlan     string                 `json:"assignedPlan,omitempty"`
}

// demandeView maps u to the dashboard demande shape. The status follows
// the account: done once a plan is assigned, in progress once analysed.
func demandeView(u *entities.User, now time.Time) userDemandeView {
	v := userDemandeView{
		ID:               u.ID,
		UserID:           u.ID,
		Name:             u.DisplayName(),
		Email:            u.Email,
		Source:           entities.SourceOnboarding,
		Status:           entities.DemandeStatusPending,
		SubmittedAt:      u.CreatedAt,
		Patient:          ai.FromUser(u, now),
		Profiles:         []entities.Prediction{},
		MissingData:      ai.CheckUserData(u),
		DataCompleteness: ai.Completeness(u),
		RequestedPlan:    u.RequestedPlan,
		AssignedPlan:     u.AssignedPlan,
	}
	if v.MissingData == nil {
		v.MissingData = []string{}
	}

	if u.AIAnalysis != nil && u.AIAnalysis.LastPrediction != nil {
		v.Profiles = ai.SortPredictions(u.AIAnalysis.LastPrediction.Predictions)
		analyzedAt := u.AIAnalysis.LastUpdate
		v.AnalyzedAt = &analyzedAt
		v.Status = entities.DemandeStatusInProgress
	}
	if u.AssignedPlan != "" {
		v.Status = entities.DemandeStatusDone
	}
	return v
}

// GetUserDemande returns a user mapped to the demande view
func (h *HTTPHandlerImpl) GetUserDemande(w http.ResponseWriter, r *http.Request) {
	u := h.userFromPath(w, r, "id")
	if u == nil {
		return
	}
	h.RespondWithSuccess(w, http.StatusOK, "", demandeView(u, h.now()))
}

type actionPlanRequest struct {
	Profiles []entities.PlanProfile `json:"profiles"`
	Sections entities.PlanSections  `json:"sections"`
}

// decodeActionPlan reads and validates an action plan body. It writes the
// error response and returns false on failure.
func (h *HTTPHandlerImpl) decodeActionPlan(w http.ResponseWriter, r *http.Request) (actionPlanRequest, bool) {
	var req actionPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if err := h.validator.ValidateActionPlan(req.Profiles, req.Sections); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func createdBy(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

// AssignPlan creates an action plan for a user and links it to the account
func (h *HTTPHandlerImpl) AssignPlan(w http.ResponseWriter, r *http.Request) {
	u := h.userFromPath(w, r, "id")
	if u == nil {
		return
	}
	req, ok := h.decodeActionPlan(w, r)
	if !ok {
		return
	}

	plan := &entities.ActionPlan{
		UserID:    u.ID,
		Profiles:  req.Profiles,
		Sections:  req.Sections,
		CreatedBy: createdBy(r),
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.AssignActionPlan(r.Context(), plan); err != nil {
		h.respondStoreError(w, r, "User", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusCreated, "Action plan assigned successfully", plan)
}

type userStats struct {
	Total               int `json:"total"`
	Admins              int `json:"admins"`
	OnboardingCompleted int `json:"onboardingCompleted"`
	RequestedPlan       int `json:"requestedPlan"`
	AssignedPlan        int `json:"assignedPlan"`
	Analyzed            int `json:"analyzed"`
}

type statsResponse struct {
	Users    userStats                      `json:"users"`
	Demandes map[entities.DemandeStatus]int `json:"demandes"`
	AI       entities.AIStatus              `json:"ai"`
}

// Stats returns dashboard counters
func (h *HTTPHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.respondInternalError(w, r, "Failed to compute statistics", err)
		return
	}

	var s userStats
	for _, u := range users {
		s.Total++
		if u.IsAdmin {
			s.Admins++
		}
		if u.OnboardingCompleted {
			s.OnboardingCompleted++
		}
		if u.RequestedPlan {
			s.RequestedPlan++
		}
		if u.AssignedPlan != "" {
			s.AssignedPlan++
		}
		if u.AIAnalysis != nil {
			s.Analyzed++
		}
	}

	demandes, err := h.store.CountDemandesByStatus(r.Context())
	if err != nil {
		h.respondInternalError(w, r, "Failed to compute statistics", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "", statsResponse{
		Users:    s,
		Demandes: demandes,
		AI:       h.state.GetAIStatus(),
	})
}

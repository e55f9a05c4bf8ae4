package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/logging"
)

// ListDemandes lists demandes newest first, optionally filtered by ?status=
func (h *HTTPHandlerImpl) ListDemandes(w http.ResponseWriter, r *http.Request) {
	var status entities.DemandeStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := h.validator.ValidateDemandeStatus(raw)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	demandes, err := h.store.ListDemandes(r.Context(), status)
	if err != nil {
		h.respondInternalError(w, r, "Failed to list demandes", err)
		return
	}
	if demandes == nil {
		demandes = []entities.Demande{}
	}

	h.RespondWithSuccess(w, http.StatusOK, "", demandes)
}

// demandeFromPath loads the demande named by the {id} URL parameter. It
// writes the error response and returns nil when it cannot be served.
func (h *HTTPHandlerImpl) demandeFromPath(w http.ResponseWriter, r *http.Request) *entities.Demande {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid demande ID")
		return nil
	}

	d, err := h.store.GetDemande(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, "Demande", err)
		return nil
	}
	return d
}

// GetDemande returns one demande
func (h *HTTPHandlerImpl) GetDemande(w http.ResponseWriter, r *http.Request) {
	d := h.demandeFromPath(w, r)
	if d == nil {
		return
	}
	h.RespondWithSuccess(w, http.StatusOK, "", d)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateDemandeStatus moves a demande through its review workflow
func (h *HTTPHandlerImpl) UpdateDemandeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid demande ID")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := h.validator.ValidateDemandeStatus(req.Status)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.store.UpdateDemandeStatus(r.Context(), id, status)
	if err != nil {
		h.respondStoreError(w, r, "Demande", err)
		return
	}

	logging.Info("Demande status updated", "demande_id", id, "status", status, "by", createdBy(r))
	h.RespondWithSuccess(w, http.StatusOK, "Status updated successfully", d)
}

type profilesResponse struct {
	DemandeID  string                `json:"demandeId"`
	Profiles   []entities.Prediction `json:"profiles"`
	AnalyzedAt *time.Time            `json:"analyzedAt,omitempty"`
}

// GetDemandeProfiles returns the latest classifier result of a demande
func (h *HTTPHandlerImpl) GetDemandeProfiles(w http.ResponseWriter, r *http.Request) {
	d := h.demandeFromPath(w, r)
	if d == nil {
		return
	}

	profiles := d.Profiles
	if profiles == nil {
		profiles = []entities.Prediction{}
	}
	h.RespondWithSuccess(w, http.StatusOK, "", profilesResponse{
		DemandeID:  d.ID,
		Profiles:   ai.SortPredictions(profiles),
		AnalyzedAt: d.AnalyzedAt,
	})
}

type analyzeResponse struct {
	Demande      *entities.Demande     `json:"demande"`
	Predictions  []entities.Prediction `json:"predictions"`
	InputData    ai.Payload            `json:"inputData"`
	AnalysisDate time.Time             `json:"analysisDate"`
}

// AnalyzeDemande sends the patient data to the classifier and stores the profiles
func (h *HTTPHandlerImpl) AnalyzeDemande(w http.ResponseWriter, r *http.Request) {
	d := h.demandeFromPath(w, r)
	if d == nil {
		return
	}

	payload := ai.Normalize(d.Patient)
	predictions, err := h.predictor.Predict(r.Context(), payload)
	if err != nil {
		h.respondAIError(w, "Failed to analyze demande", err)
		return
	}

	analyzedAt := h.now().UTC()
	updated, err := h.store.SaveProfiles(r.Context(), d.ID, predictions, analyzedAt)
	if err != nil {
		h.respondStoreError(w, r, "Demande", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "Demande analyzed successfully", analyzeResponse{
		Demande:      updated,
		Predictions:  predictions,
		InputData:    payload,
		AnalysisDate: analyzedAt,
	})
}

// ListDemandeActionPlans lists the plans built for a demande
func (h *HTTPHandlerImpl) ListDemandeActionPlans(w http.ResponseWriter, r *http.Request) {
	d := h.demandeFromPath(w, r)
	if d == nil {
		return
	}

	plans, err := h.store.ListActionPlansByDemande(r.Context(), d.ID)
	if err != nil {
		h.respondInternalError(w, r, "Failed to list action plans", err)
		return
	}
	if plans == nil {
		plans = []entities.ActionPlan{}
	}
	h.RespondWithSuccess(w, http.StatusOK, "", plans)
}

// CreateDemandeActionPlan stores a plan for a demande and closes the demande
func (h *HTTPHandlerImpl) CreateDemandeActionPlan(w http.ResponseWriter, r *http.Request) {
	d := h.demandeFromPath(w, r)
	if d == nil {
		return
	}
	req, ok := h.decodeActionPlan(w, r)
	if !ok {
		return
	}

	plan := &entities.ActionPlan{
		DemandeID: d.ID,
		UserID:    d.UserID,
		Profiles:  req.Profiles,
		Sections:  req.Sections,
		CreatedBy: createdBy(r),
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateActionPlan(r.Context(), plan); err != nil {
		h.respondInternalError(w, r, "Failed to create action plan", err)
		return
	}
	if _, err := h.store.UpdateDemandeStatus(r.Context(), d.ID, entities.DemandeStatusDone); err != nil {
		h.respondStoreError(w, r, "Demande", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusCreated, "Action plan created successfully", plan)
}

type catalogueResponse struct {
	Profiles      []string              `json:"profiles"`
	Sections      entities.PlanSections `json:"sections"`
	Titles        map[string]string     `json:"titles"`
	KnownProfiles []string              `json:"knownProfiles"`
}

// ActionPlanCatalogue proposes plan items for ?profiles=a,b
func (h *HTTPHandlerImpl) ActionPlanCatalogue(w http.ResponseWriter, r *http.Request) {
	profiles := []string{}
	for _, p := range strings.Split(r.URL.Query().Get("profiles"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			profiles = append(profiles, p)
		}
	}

	h.RespondWithSuccess(w, http.StatusOK, "", catalogueResponse{
		Profiles:      profiles,
		Sections:      h.catalogue.Propose(profiles),
		Titles:        h.catalogue.Titles(),
		KnownProfiles: h.catalogue.KnownProfiles(),
	})
}

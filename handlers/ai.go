package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/logging"
)

const (
	profileHint  = "Please complete your profile, especially basic info and lab results."
	probeTimeout = 10 * time.Second
)

// respondAIError maps classifier failures to responses
func (h *HTTPHandlerImpl) respondAIError(w http.ResponseWriter, message string, err error) {
	var missing *ai.MissingFieldsError
	var upstream *ai.UpstreamError

	switch {
	case errors.As(err, &missing):
		h.respondWithErrorFields(w, http.StatusBadRequest, message, map[string]any{
			"error":       err.Error(),
			"missingData": missing.Fields,
		})
	case errors.Is(err, ai.ErrOutOfRange):
		h.respondWithErrorFields(w, http.StatusBadRequest, message, map[string]any{"error": err.Error()})
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logging.Warn("AI service unavailable", "error", err)
		h.respondWithErrorFields(w, http.StatusServiceUnavailable, message, map[string]any{"error": ai.ErrUnavailable.Error()})
	case errors.As(err, &upstream):
		logging.Warn("AI service returned an error", "status", upstream.Status, "detail", upstream.Detail)
		h.respondWithErrorFields(w, http.StatusBadGateway, message, map[string]any{"error": err.Error()})
	default:
		logging.Error(message, "error", err)
		detail := "Internal server error"
		if h.exposeErrors {
			detail = err.Error()
		}
		h.respondWithErrorFields(w, http.StatusInternalServerError, message, map[string]any{"error": detail})
	}
}

type userPredictionResponse struct {
	Predictions      []entities.Prediction `json:"predictions"`
	AnalysisDate     time.Time             `json:"analysisDate"`
	DataCompleteness ai.DataCompleteness   `json:"dataCompleteness"`
}

// PredictForUser classifies a stored user profile and keeps the result on the account
func (h *HTTPHandlerImpl) PredictForUser(w http.ResponseWriter, r *http.Request) {
	u := h.userFromPath(w, r, "userId")
	if u == nil {
		return
	}

	if missing := ai.CheckUserData(u); len(missing) > 0 {
		h.respondWithErrorFields(w, http.StatusBadRequest, "Insufficient user data for AI prediction", map[string]any{
			"missingData": missing,
			"hint":        profileHint,
		})
		return
	}

	now := h.now().UTC()
	payload := ai.FromUser(u, now)
	if err := ai.ValidateRequired(payload); err != nil {
		h.respondAIError(w, "Insufficient user data for AI prediction", err)
		return
	}

	predictions, err := h.predictor.Predict(r.Context(), payload)
	if err != nil {
		h.respondAIError(w, "Failed to get AI prediction", err)
		return
	}

	rec := entities.PredictionRecord{Predictions: predictions, InputData: payload, Timestamp: now, UserID: u.ID}
	if err := h.store.StorePrediction(r.Context(), u.ID, rec); err != nil {
		logging.Error("Failed to store AI prediction", "user_id", u.ID, "error", err)
	}

	h.RespondWithSuccess(w, http.StatusOK, "AI prediction generated successfully", userPredictionResponse{
		Predictions:      predictions,
		AnalysisDate:     now,
		DataCompleteness: ai.Completeness(u),
	})
}

type customPredictionResponse struct {
	Predictions  []entities.Prediction `json:"predictions"`
	InputData    ai.Payload            `json:"inputData"`
	AnalysisDate time.Time             `json:"analysisDate"`
}

// CustomPredict classifies an arbitrary payload in the classifier schema
func (h *HTTPHandlerImpl) CustomPredict(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil && !errors.Is(err, errEmptyBody) {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(raw) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "No prediction data provided")
		return
	}

	if err := ai.ValidateRequired(raw); err != nil {
		h.respondAIError(w, "Invalid prediction data", err)
		return
	}

	payload := ai.Normalize(raw)
	predictions, err := h.predictor.Predict(r.Context(), payload)
	if err != nil {
		h.respondAIError(w, "Failed to get AI prediction", err)
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "Custom AI prediction generated successfully", customPredictionResponse{
		Predictions:  predictions,
		InputData:    payload,
		AnalysisDate: h.now().UTC(),
	})
}

type onboardingResponse struct {
	Predictions   []entities.Prediction `json:"predictions"`
	AnalysisDate  *time.Time            `json:"analysisDate,omitempty"`
	BonusXP       int                   `json:"bonusXP,omitempty"`
	DemandeID     string                `json:"demandeId,omitempty"`
	NeedsMoreData bool                  `json:"needsMoreData,omitempty"`
}

// OnboardingPredict runs the first analysis once a user finished onboarding.
// A classifier failure does not fail the onboarding.
func (h *HTTPHandlerImpl) OnboardingPredict(w http.ResponseWriter, r *http.Request) {
	u := h.userFromPath(w, r, "userId")
	if u == nil {
		return
	}

	if !u.OnboardingCompleted {
		h.respondWithErrorFields(w, http.StatusBadRequest, "Onboarding must be completed before AI analysis", map[string]any{
			"currentStep": u.OnboardingStep,
		})
		return
	}

	now := h.now().UTC()
	payload := ai.FromUser(u, now)
	err := ai.ValidateRequired(payload)
	var predictions []entities.Prediction
	if err == nil {
		predictions, err = h.predictor.Predict(r.Context(), payload)
	}
	if err != nil {
		logging.Warn("Onboarding AI analysis failed", "user_id", u.ID, "error", err)
		h.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Onboarding completed, but AI prediction not available",
			"warning": err.Error(),
			"data":    onboardingResponse{Predictions: []entities.Prediction{}, NeedsMoreData: true},
		})
		return
	}

	rec := entities.PredictionRecord{Predictions: predictions, InputData: payload, Timestamp: now, UserID: u.ID}
	if err := h.store.StorePrediction(r.Context(), u.ID, rec); err != nil {
		logging.Error("Failed to store AI prediction", "user_id", u.ID, "error", err)
	}
	if _, err := h.store.AddXP(r.Context(), u.ID, OnboardingBonusXP); err != nil {
		logging.Error("Failed to credit onboarding XP", "user_id", u.ID, "error", err)
	}

	analyzedAt := now
	d := &entities.Demande{
		UserID:      u.ID,
		Source:      entities.SourceOnboarding,
		Status:      entities.DemandeStatusPending,
		SubmittedAt: now,
		Patient:     payload,
		Profiles:    predictions,
		AnalyzedAt:  &analyzedAt,
	}
	if err := h.store.CreateDemande(r.Context(), d); err != nil {
		logging.Error("Failed to create onboarding demande", "user_id", u.ID, "error", err)
		d.ID = ""
	}

	h.RespondWithSuccess(w, http.StatusOK, "AI analysis completed for your profile", onboardingResponse{
		Predictions:  predictions,
		AnalysisDate: &analyzedAt,
		BonusXP:      OnboardingBonusXP,
		DemandeID:    d.ID,
	})
}

// AIHealth probes the classifier now, bypassing the scheduled result
func (h *HTTPHandlerImpl) AIHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	now := h.now().UTC()
	latency, err := h.predictor.Probe(ctx)
	status := entities.AIStatus{
		Online:    err == nil,
		Latency:   latency,
		Endpoint:  h.predictor.Endpoint(),
		CheckedAt: now,
	}
	if err != nil {
		status.Error = err.Error()
	}
	h.state.SetAIStatus(status)

	if err != nil {
		h.RespondWithJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "AI service is unavailable",
			Data: map[string]any{
				"status":    "offline",
				"error":     err.Error(),
				"endpoint":  status.Endpoint,
				"timestamp": now.Format(time.RFC3339),
			},
		})
		return
	}

	h.RespondWithSuccess(w, http.StatusOK, "AI service is healthy", map[string]any{
		"status":       "online",
		"responseTime": fmt.Sprintf("%dms", latency.Milliseconds()),
		"endpoint":     status.Endpoint,
		"timestamp":    now.Format(time.RFC3339),
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/textnorm"
)

type intakeResponse struct {
	ID     string                 `json:"id"`
	Status entities.DemandeStatus `json:"status"`
}

// readIntake decodes a JSON or urlencoded form submission. Legacy Latin-1
// text is converted to UTF-8: for forms after percent-decoding, since
// browsers escape every non-ASCII byte.
func readIntake(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errors.New("request body too large")
		}
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errors.New("invalid form body")
		}
		raw := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) == 0 {
				continue
			}
			value := strings.TrimSpace(string(textnorm.ToUTF8([]byte(v[0]))))
			if value != "" {
				raw[string(textnorm.ToUTF8([]byte(k)))] = value
			}
		}
		return raw, nil
	default:
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, errEmptyBody
		}
		var raw map[string]any
		if err := json.NewDecoder(textnorm.UTF8Reader(body)).Decode(&raw); err != nil {
			return nil, errors.New("invalid JSON body")
		}
		return raw, nil
	}
}

// Intake stores a public form submission as a pending demande. Missing
// required answers are rejected, other values are normalised.
func (h *HTTPHandlerImpl) Intake(w http.ResponseWriter, r *http.Request) {
	raw, err := readIntake(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(raw) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "No intake data provided")
		return
	}

	var missing *ai.MissingFieldsError
	if err := ai.ValidateRequired(raw); errors.As(err, &missing) {
		h.respondWithErrorFields(w, http.StatusBadRequest, "Missing required fields", map[string]any{
			"missingData": missing.Fields,
		})
		return
	}

	d := &entities.Demande{
		Source:      entities.SourceIntake,
		Status:      entities.DemandeStatusPending,
		SubmittedAt: h.now().UTC(),
		Patient:     ai.Normalize(raw),
	}
	if err := h.store.CreateDemande(r.Context(), d); err != nil {
		h.respondInternalError(w, r, "Failed to save demande", err)
		return
	}

	logging.Info("Intake demande received", "demande_id", d.ID)
	h.RespondWithSuccess(w, http.StatusCreated, "Demande submitted successfully", intakeResponse{ID: d.ID, Status: d.Status})
}

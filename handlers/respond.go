package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/slim-api/logging"
)

// Response is the envelope of every JSON answer
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RespondWithJSON writes payload as JSON with the given status
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithSuccess wraps data in a successful envelope
func (h *HTTPHandlerImpl) RespondWithSuccess(w http.ResponseWriter, code int, message string, data any) {
	h.RespondWithJSON(w, code, Response{Success: true, Message: message, Data: data})
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithErrorFields(w, code, message, nil)
}

// respondWithErrorFields adds fields such as missingData or hint next to the message
func (h *HTTPHandlerImpl) respondWithErrorFields(w http.ResponseWriter, code int, message string, fields map[string]any) {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = false
	body["message"] = message
	h.RespondWithJSON(w, code, body)
}

// respondInternalError logs err and answers 500. The error text is only
// exposed in development.
func (h *HTTPHandlerImpl) respondInternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logging.Error(message, "error", err, "path", r.URL.Path, "method", r.Method)

	detail := "Internal server error"
	if h.exposeErrors {
		detail = err.Error()
	}
	h.respondWithErrorFields(w, http.StatusInternalServerError, message, map[string]any{"error": detail})
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON value from the request body into dst
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large: maximum %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected data after the JSON value")
	}
	return nil
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// Package health provides health checking functionality for the slim API.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/slim-api/interfaces"
	"github.com/giygas/slim-api/logging"
)

// pingTimeout bounds the database check so a locked database cannot hang probes
const pingTimeout = 2 * time.Second

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	db            interfaces.Pinger
	state         interfaces.StateStore
	probeInterval time.Duration
}

// NewHealthChecker creates a new health checker with injected dependencies.
// probeInterval is the AI probe period, used to report the next probe time.
func NewHealthChecker(db interfaces.Pinger, state interfaces.StateStore, probeInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		db:            db,
		state:         state,
		probeInterval: probeInterval,
	}
}

// HealthCheck combines the database ping with the last AI probe.
// The database decides between healthy and unhealthy; an offline or not yet
// probed AI service only degrades the status.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	database := "ok"
	if err := h.db.Ping(pingCtx); err != nil {
		logging.Error("Database ping failed", "error", err)
		database = "unreachable"
	}

	ai := h.state.GetAIStatus()
	aiState := "unknown"
	switch {
	case !ai.Known():
	case ai.Online:
		aiState = "online"
	default:
		aiState = "offline"
	}

	switch {
	case database != "ok":
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case aiState != "online":
		status = "degraded"
		httpStatus = http.StatusOK
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	aiData := map[string]any{
		"status":   aiState,
		"endpoint": ai.Endpoint,
	}
	if ai.Known() {
		aiData["checked_at"] = ai.CheckedAt.Format(time.RFC3339)
		aiData["next_probe"] = h.NextProbe().Format(time.RFC3339)
	}
	if ai.Online {
		aiData["latency_ms"] = ai.Latency.Milliseconds()
	}
	if ai.Error != "" {
		aiData["error"] = ai.Error
	}

	data = map[string]any{
		"database":       database,
		"ai":             aiData,
		"uptime_seconds": math.Round(h.state.Uptime().Seconds()),
	}

	if purge := h.state.GetLastPurge(); !purge.At.IsZero() {
		data["last_token_purge"] = purge.At.Format(time.RFC3339)
	}
	if stale := h.state.GetStaleReport(); !stale.At.IsZero() {
		data["stale_demandes"] = stale.Pending
	}

	return status, data, httpStatus
}

// NextProbe returns when the scheduler will next probe the AI service,
// or the zero time if no probe has completed.
func (h *HealthCheckerImpl) NextProbe() time.Time {
	ai := h.state.GetAIStatus()
	if !ai.Known() {
		return time.Time{}
	}
	return ai.CheckedAt.Add(h.probeInterval)
}

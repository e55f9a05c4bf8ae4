// Package scheduler runs the background jobs of the slim API: the classifier
// health probe, the nightly refresh token purge and the stale demande report.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/interfaces"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	// PurgeAt is the daily time of the refresh token purge
	PurgeAt = "03:00"
	// StaleReportAt is the daily time of the stale demande report
	StaleReportAt = "07:00"
	// StaleAfter is how long a demande may stay pending before it is reported
	StaleAfter = 7 * 24 * time.Hour

	jobTimeout = time.Minute
)

// Scheduler runs periodic jobs against the stores using dependency injection
type Scheduler struct {
	tokens        interfaces.TokenStore
	demandes      interfaces.DemandeStore
	predictor     interfaces.Predictor
	state         interfaces.StateStore
	probeInterval time.Duration
	scheduler     *gocron.Scheduler
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(tokens interfaces.TokenStore, demandes interfaces.DemandeStore, predictor interfaces.Predictor,
	state interfaces.StateStore, probeInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tokens:        tokens,
		demandes:      demandes,
		predictor:     predictor,
		state:         state,
		probeInterval: probeInterval,
		scheduler:     gocron.NewScheduler(time.Local),
		now:           time.Now,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start registers the jobs and starts the scheduler. The AI probe runs
// immediately, the daily jobs wait for their time.
func (s *Scheduler) Start() error {
	if s.probeInterval <= 0 {
		return fmt.Errorf("invalid AI probe interval: %s", s.probeInterval)
	}

	_, err := s.scheduler.Every(s.probeInterval).SingletonMode().Do(func() {
		s.probeAI(s.ctx)
	})
	if err != nil {
		logging.Error("Failed to schedule AI probe", "error", err)
		return fmt.Errorf("failed to schedule AI probe: %w", err)
	}

	_, err = s.scheduler.Every(1).Day().At(PurgeAt).WaitForSchedule().Do(func() {
		if err := s.purgeTokens(s.ctx); err != nil {
			logging.Error("Failed to purge refresh tokens", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule token purge", "error", err)
		return fmt.Errorf("failed to schedule token purge: %w", err)
	}

	_, err = s.scheduler.Every(1).Day().At(StaleReportAt).WaitForSchedule().Do(func() {
		if err := s.reportStaleDemandes(s.ctx); err != nil {
			logging.Error("Failed to report stale demandes", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule stale demande report", "error", err)
		return fmt.Errorf("failed to schedule stale demande report: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "ai_probe_interval", s.probeInterval.String(),
		"token_purge_at", PurgeAt, "stale_report_at", StaleReportAt)

	return nil
}

// Stop stops the scheduler and cancels running jobs
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// probeAI sends the fixed probe payload and records the outcome
func (s *Scheduler) probeAI(ctx context.Context) {
	// Prevent overlapping probes when the classifier is slow to wake up
	if !s.state.BeginProbe() {
		logging.Info("AI probe already in progress, skipping...")
		return
	}
	defer s.state.EndProbe()

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	latency, err := s.predictor.Probe(ctx)
	status := entities.AIStatus{
		Online:    err == nil,
		Latency:   latency,
		Endpoint:  s.predictor.Endpoint(),
		CheckedAt: s.now(),
	}

	previous := s.state.GetAIStatus()
	if err != nil {
		status.Error = err.Error()
		metrics.AIServiceUp.Set(0)
		if !previous.Known() || previous.Online {
			logging.Warn("AI service is offline", "endpoint", status.Endpoint, "error", err)
		}
	} else {
		metrics.AIServiceUp.Set(1)
		if !previous.Online {
			logging.Info("AI service is online", "endpoint", status.Endpoint, "latency_ms", latency.Milliseconds())
		}
	}

	s.state.SetAIStatus(status)
}

// purgeTokens deletes expired and revoked refresh tokens
func (s *Scheduler) purgeTokens(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	now := s.now()
	removed, err := s.tokens.PurgeExpiredTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}

	metrics.RefreshTokensPurgedTotal.Add(float64(removed))
	s.state.SetLastPurge(entities.PurgeReport{At: now, Removed: removed})
	logging.Info("Refresh token purge completed", "removed", removed)

	return nil
}

// reportStaleDemandes counts demandes still pending after StaleAfter
func (s *Scheduler) reportStaleDemandes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	now := s.now()
	count, err := s.demandes.CountPendingBefore(ctx, now.Add(-StaleAfter))
	if err != nil {
		return fmt.Errorf("failed to count stale demandes: %w", err)
	}

	metrics.DemandesStalePending.Set(float64(count))
	s.state.SetStaleReport(entities.StaleReport{At: now, Pending: count})

	if count > 0 {
		logging.Warn("Demandes pending for more than 7 days", "count", count)
	}

	return nil
}

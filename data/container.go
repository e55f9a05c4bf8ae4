// Package data holds the in-process service state shared by the scheduler,
// the health checker and the HTTP handlers. Every field is swapped atomically
// so readers never block background jobs.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/interfaces"
	"github.com/giygas/slim-api/logging"
)

// Compile-time check to ensure ServiceState implements StateStore
var _ interfaces.StateStore = (*ServiceState)(nil)

// ServiceState holds the results of background jobs
type ServiceState struct {
	serverStartTime atomic.Value // time.Time
	aiStatus        atomic.Value // entities.AIStatus
	lastPurge       atomic.Value // entities.PurgeReport
	lastStale       atomic.Value // entities.StaleReport
	probing         atomic.Bool
}

// NewServiceState creates a ServiceState with no job results yet
func NewServiceState() *ServiceState {
	s := &ServiceState{}
	s.serverStartTime.Store(time.Time{})
	s.aiStatus.Store(entities.AIStatus{})
	s.lastPurge.Store(entities.PurgeReport{})
	s.lastStale.Store(entities.StaleReport{})
	return s
}

// SetServerStartTime sets the server start time
func (s *ServiceState) SetServerStartTime(startTime time.Time) {
	s.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (s *ServiceState) GetServerStartTime() time.Time {
	if v := s.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// Uptime is the time elapsed since SetServerStartTime, or zero before it.
func (s *ServiceState) Uptime() time.Duration {
	start := s.GetServerStartTime()
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// SetAIStatus stores the latest probe result
func (s *ServiceState) SetAIStatus(status entities.AIStatus) {
	s.aiStatus.Store(status)
}

// GetAIStatus returns the latest probe result
func (s *ServiceState) GetAIStatus() entities.AIStatus {
	if v := s.aiStatus.Load(); v != nil {
		if status, ok := v.(entities.AIStatus); ok {
			return status
		}
	}
	return entities.AIStatus{}
}

// SetLastPurge stores the result of the refresh token purge
func (s *ServiceState) SetLastPurge(report entities.PurgeReport) {
	s.lastPurge.Store(report)
}

// GetLastPurge returns the result of the last refresh token purge
func (s *ServiceState) GetLastPurge() entities.PurgeReport {
	if v := s.lastPurge.Load(); v != nil {
		if report, ok := v.(entities.PurgeReport); ok {
			return report
		}
	}
	return entities.PurgeReport{}
}

// SetStaleReport stores the latest stale demande count
func (s *ServiceState) SetStaleReport(report entities.StaleReport) {
	s.lastStale.Store(report)
}

// GetStaleReport returns the latest stale demande count
func (s *ServiceState) GetStaleReport() entities.StaleReport {
	if v := s.lastStale.Load(); v != nil {
		if report, ok := v.(entities.StaleReport); ok {
			return report
		}
	}
	return entities.StaleReport{}
}

// BeginProbe marks the start of an AI probe.
// Returns true if the probe can proceed, false if another one is in flight.
func (s *ServiceState) BeginProbe() bool {
	return s.probing.CompareAndSwap(false, true)
}

// EndProbe marks the end of an AI probe
func (s *ServiceState) EndProbe() {
	s.probing.Store(false)
}

// IsProbing returns true while an AI probe is in flight
func (s *ServiceState) IsProbing() bool {
	return s.probing.Load()
}

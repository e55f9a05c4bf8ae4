// Package interfaces defines core abstractions for the slim API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/entities"
)

// UserStore persists user accounts and their onboarding profile.
type UserStore interface {
	CreateUser(ctx context.Context, u *entities.User) error
	GetUser(ctx context.Context, id string) (*entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)

	// UpdateUser loads the user, applies fn and saves the result in one transaction.
	UpdateUser(ctx context.Context, id string, fn func(*entities.User) error) (*entities.User, error)

	RecordLogin(ctx context.Context, id string, at time.Time) error
	StorePrediction(ctx context.Context, id string, rec entities.PredictionRecord) error
	AddXP(ctx context.Context, id string, xp int) (*entities.User, error)
	AssignPlan(ctx context.Context, userID, planID string) error
}

// DemandeStore persists patient submissions.
type DemandeStore interface {
	CreateDemande(ctx context.Context, d *entities.Demande) error
	GetDemande(ctx context.Context, id string) (*entities.Demande, error)
	// ListDemandes returns demandes newest first. An empty status lists all of them.
	ListDemandes(ctx context.Context, status entities.DemandeStatus) ([]entities.Demande, error)
	UpdateDemandeStatus(ctx context.Context, id string, status entities.DemandeStatus) (*entities.Demande, error)
	// SaveProfiles stores the latest predictions and moves a pending demande in progress.
	SaveProfiles(ctx context.Context, id string, profiles []entities.Prediction, at time.Time) (*entities.Demande, error)
	CountDemandesByStatus(ctx context.Context) (map[entities.DemandeStatus]int, error)
	CountPendingBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ActionPlanStore persists care plans.
type ActionPlanStore interface {
	CreateActionPlan(ctx context.Context, p *entities.ActionPlan) error
	// AssignActionPlan creates p and assigns it to p.UserID atomically.
	AssignActionPlan(ctx context.Context, p *entities.ActionPlan) error
	GetActionPlan(ctx context.Context, id string) (*entities.ActionPlan, error)
	ListActionPlansByDemande(ctx context.Context, demandeID string) ([]entities.ActionPlan, error)
	ListActionPlansByUser(ctx context.Context, userID string) ([]entities.ActionPlan, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, t *entities.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*entities.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeUserTokens(ctx context.Context, userID string) error
	// PurgeExpiredTokens deletes expired and revoked tokens and returns how many were removed.
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the complete persistence layer.
type Store interface {
	UserStore
	DemandeStore
	ActionPlanStore
	TokenStore
	Pinger

	Close() error
}

// Predictor scores patient payloads against the obesity profiles.
type Predictor interface {
	Predict(ctx context.Context, p ai.Payload) ([]entities.Prediction, error)
	// Probe sends a fixed payload and returns the round trip time.
	Probe(ctx context.Context) (time.Duration, error)
	Endpoint() string
}

// StateStore holds the results of background jobs for the health endpoint.
type StateStore interface {
	GetServerStartTime() time.Time
	Uptime() time.Duration
	GetAIStatus() entities.AIStatus
	SetAIStatus(status entities.AIStatus)
	GetLastPurge() entities.PurgeReport
	SetLastPurge(report entities.PurgeReport)
	GetStaleReport() entities.StaleReport
	SetStaleReport(report entities.StaleReport)
	BeginProbe() bool
	EndProbe()
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the overall status, its details and the HTTP status to answer with.
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}

// Validator checks user input before it reaches the stores.
type Validator interface {
	ValidateInput(input string) error
	ValidateID(id string) error
	ValidateEmail(email string) error
	ValidatePassword(password string) error
	ValidateName(name string) error
	ValidateDemandeStatus(status string) (entities.DemandeStatus, error)
	ValidateActionPlan(profiles []entities.PlanProfile, sections entities.PlanSections) error
}

package entities

import "time"

// DemandeStatus is the review state of a patient submission.
type DemandeStatus string

const (
	DemandeStatusPending    DemandeStatus = "pending"
	DemandeStatusInProgress DemandeStatus = "in_progress"
	DemandeStatusDone       DemandeStatus = "done"
)

// DemandeStatuses lists every valid status in workflow order.
var DemandeStatuses = []DemandeStatus{DemandeStatusPending, DemandeStatusInProgress, DemandeStatusDone}

// Valid reports whether s is a known status.
func (s DemandeStatus) Valid() bool {
	for _, status := range DemandeStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Demande sources
const (
	SourceIntake     = "intake"
	SourceOnboarding = "onboarding"
)

// Demande is a patient intake submission awaiting clinician review.
// Patient holds the submission keyed by the classifier field names,
// already normalised (numbers clamped, enums defaulted).
type Demande struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId,omitempty"`
	Source      string         `json:"source"`
	Status      DemandeStatus  `json:"status"`
	SubmittedAt time.Time      `json:"dateSubmission"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Patient     map[string]any `json:"patient"`
	Profiles    []Prediction   `json:"profiles,omitempty"`
	AnalyzedAt  *time.Time     `json:"analyzedAt,omitempty"`
}

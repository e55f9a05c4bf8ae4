package entities

import "time"

// Profile labels returned by the classifier
const (
	ProfileDigestif      = "digestif"
	ProfileHormonal      = "hormonal"
	ProfileIatrogene     = "iatrogene"
	ProfileMetabolique   = "metabolique"
	ProfilePsychologique = "psychologique"
)

// Prediction is the classifier score for one profile.
type Prediction struct {
	Profile     string  `json:"profile"`
	Probability float64 `json:"probability"`
	Percentage  string  `json:"percentage"`
}

// PredictionRecord is a prediction run together with the payload it was computed from.
type PredictionRecord struct {
	Predictions []Prediction   `json:"predictions"`
	InputData   map[string]any `json:"inputData"`
	Timestamp   time.Time      `json:"timestamp"`
	UserID      string         `json:"userId,omitempty"`
}

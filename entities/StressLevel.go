package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StressLevel is reported either as a 1-10 score or as a label
// (low, moderate, high) depending on the client that filled the profile.
type StressLevel struct {
	Score *float64
	Label string
}

// StressScore builds a numeric stress level.
func StressScore(v float64) StressLevel {
	return StressLevel{Score: &v}
}

// StressLabel builds a labelled stress level.
func StressLabel(label string) StressLevel {
	return StressLevel{Label: label}
}

// IsZero reports whether no stress level was provided.
func (s StressLevel) IsZero() bool {
	return s.Score == nil && s.Label == ""
}

func (s StressLevel) MarshalJSON() ([]byte, error) {
	switch {
	case s.Score != nil:
		return json.Marshal(*s.Score)
	case s.Label != "":
		return json.Marshal(s.Label)
	default:
		return []byte("null"), nil
	}
}

func (s *StressLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = StressLevel{}
		return nil
	}

	if data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		// Numeric strings ("7") come from HTML forms
		if v, err := strconv.ParseFloat(label, 64); err == nil {
			*s = StressScore(v)
			return nil
		}
		*s = StressLabel(label)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("stress level must be a number or a label: %w", err)
	}
	*s = StressScore(v)
	return nil
}

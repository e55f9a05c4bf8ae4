package ai

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/giygas/slim-api/entities"
)

var (
	// ErrMissingRequired is returned when a mandatory payload field is absent.
	ErrMissingRequired = errors.New("missing required fields for AI prediction")
	// ErrOutOfRange is returned when Age or TSH fall outside the classifier's domain.
	ErrOutOfRange = errors.New("value out of range")
)

// MissingFieldsError lists the mandatory fields absent from a payload.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequired.Error(), strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingRequired }

// Ranges enforced on raw payloads before they are sent. Other numeric
// fields are only clamped by Normalize.
var strictRanges = []struct {
	field    string
	min, max float64
	message  string
}{
	{FieldAge, 18, 80, "Age must be between 18 and 80 years"},
	{FieldTSH, 0.1, 15.0, "TSH must be between 0.1 and 15.0"},
}

// ValidateRequired checks that a payload can be sent to the classifier.
// A required field is missing when absent, empty or zero.
func ValidateRequired(p map[string]any) error {
	var missing []string
	for _, name := range RequiredFields() {
		if isBlank(p[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	for _, r := range strictRanges {
		n, ok := toNumber(p[r.field])
		if !ok || n < r.min || n > r.max {
			return fmt.Errorf("%w: %s", ErrOutOfRange, r.message)
		}
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	}
	if n, ok := toNumber(v); ok {
		return n == 0
	}
	return false
}

// CheckUserData lists the profile answers needed before a user can be
// classified. An empty result means the profile is sufficient.
func CheckUserData(u *entities.User) []string {
	var missing []string
	if u.BasicInfo.Gender == "" {
		missing = append(missing, "gender")
	}
	if u.BasicInfo.DateOfBirth == "" {
		missing = append(missing, "date of birth")
	}
	if u.BasicInfo.Height == 0 {
		missing = append(missing, "height")
	}
	if u.BasicInfo.Weight == 0 {
		missing = append(missing, "weight")
	}
	if u.LabResults.TSH == 0 {
		missing = append(missing, "TSH lab result")
	}
	return missing
}

// DataCompleteness describes how much of the profile used by the classifier is filled.
type DataCompleteness struct {
	Percentage      int    `json:"percentage"`
	CompletedFields int    `json:"completedFields"`
	TotalFields     int    `json:"totalFields"`
	Quality         string `json:"quality"`
}

var completenessChecks = []func(*entities.User) bool{
	func(u *entities.User) bool { return u.BasicInfo.Gender != "" },
	func(u *entities.User) bool { return u.BasicInfo.DateOfBirth != "" },
	func(u *entities.User) bool { return u.BasicInfo.Height != 0 },
	func(u *entities.User) bool { return u.BasicInfo.Weight != 0 },
	func(u *entities.User) bool { return u.BasicInfo.Profession != "" },
	func(u *entities.User) bool { return u.BasicInfo.NumberOfChildren != nil },
	func(u *entities.User) bool { return u.BasicInfo.Smoking != "" },
	func(u *entities.User) bool { return u.BasicInfo.Alcohol != "" },
	func(u *entities.User) bool { return u.LabResults.TSH != 0 },
	func(u *entities.User) bool { return !u.Lifestyle.StressLevel.IsZero() },
	func(u *entities.User) bool { return u.Lifestyle.ExerciseFrequency != "" },
	func(u *entities.User) bool {
		h := u.MedicalHistory.PersonalMedicalHistory
		return h.DiabetesDT1 != "" || h.DiabetesDT2 != ""
	},
	func(u *entities.User) bool { return u.MedicalHistory.PersonalMedicalHistory.Hypothyroidism != "" },
}

// Completeness scores the profile over the fields the classifier relies on.
func Completeness(u *entities.User) DataCompleteness {
	completed := 0
	for _, check := range completenessChecks {
		if check(u) {
			completed++
		}
	}

	total := len(completenessChecks)
	percentage := int(math.Round(float64(completed) / float64(total) * 100))

	quality := "low"
	switch {
	case percentage >= 80:
		quality = "high"
	case percentage >= 60:
		quality = "medium"
	}

	return DataCompleteness{
		Percentage:      percentage,
		CompletedFields: completed,
		TotalFields:     total,
		Quality:         quality,
	}
}

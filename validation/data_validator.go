// Package validation checks user supplied input before it reaches the stores.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/interfaces"
)

const (
	maxSearchLength   = 100
	maxSearchWords    = 6
	maxNameLength     = 100
	maxEmailLength    = 254
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
	maxPlanItemLen   = 500
	maxPlanItems     = 200
)

// Pre-compiled regex patterns, reused for all validations
var (
	// Search input: letters (accents included), digits, spaces and the
	// punctuation found in names and email addresses
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.\+'@_]+$`)

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// Compile-time check to ensure DataValidatorImpl implements Validator
var _ interfaces.Validator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.Validator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.Validator {
	return &DataValidatorImpl{}
}

// ValidateInput validates the free text search of the user list
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > maxSearchLength {
		return fmt.Errorf("input too long: maximum %d characters", maxSearchLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	if len(strings.Fields(input)) > maxSearchWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxSearchWords)
	}

	if containsDangerousPattern(input) {
		return fmt.Errorf("input contains potentially dangerous content")
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, plus sign, @ and underscore are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID checks that id is a UUID as generated by the store
func (v *DataValidatorImpl) ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid id format")
	}
	return nil
}

// ValidateEmail checks the shape of an email address
func (v *DataValidatorImpl) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email too long: maximum %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password length policy
func (v *DataValidatorImpl) ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password too long: maximum %d bytes", maxPasswordBytes)
	}
	return nil
}

// ValidateName checks a display name
func (v *DataValidatorImpl) ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name too long: maximum %d characters", maxNameLength)
	}
	if containsDangerousPattern(name) {
		return fmt.Errorf("name contains potentially dangerous content")
	}
	return nil
}

// ValidateDemandeStatus parses a demande status
func (v *DataValidatorImpl) ValidateDemandeStatus(status string) (entities.DemandeStatus, error) {
	s := entities.DemandeStatus(strings.TrimSpace(status))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of pending, in_progress, done", status)
	}
	return s, nil
}

// ValidateActionPlan checks the clinician's selection before a plan is stored
func (v *DataValidatorImpl) ValidateActionPlan(profiles []entities.PlanProfile, sections entities.PlanSections) error {
	if len(profiles) == 0 {
		return fmt.Errorf("at least one profile is required")
	}
	for i, p := range profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("profile %d has no name", i+1)
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return fmt.Errorf("profile name too long: maximum %d characters", maxNameLength)
		}
	}

	total := sections.Total()
	if total == 0 {
		return fmt.Errorf("at least one action item is required")
	}
	if total > maxPlanItems {
		return fmt.Errorf("too many action items: maximum %d", maxPlanItems)
	}

	for _, ref := range sections.ByKey() {
		for _, item := range *ref.Items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("empty item in section %s", ref.Key)
			}
			if utf8.RuneCountInString(item) > maxPlanItemLen {
				return fmt.Errorf("item too long in section %s: maximum %d characters", ref.Key, maxPlanItemLen)
			}
			if containsDangerousPattern(item) {
				return fmt.Errorf("item in section %s contains potentially dangerous content", ref.Key)
			}
		}
	}

	return nil
}

func containsDangerousPattern(input string) bool {
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return true
		}
	}
	return false
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

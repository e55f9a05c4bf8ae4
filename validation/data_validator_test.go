package validation

import (
	"strings"
	"testing"

	"github.com/giygas/slim-api/entities"
)

func TestNewDataValidator(t *testing.T) {
	validator := NewDataValidator()

	if validator == nil {
		t.Fatal("NewDataValidator returned nil")
	}

	if _, ok := validator.(*DataValidatorImpl); !ok {
		t.Error("NewDataValidator should return *DataValidatorImpl")
	}
}

func TestValidateInput_Valid(t *testing.T) {
	validator := NewDataValidator()

	validInputs := []string{
		"dupont",
		"Jean Dupont",
		"héloïse",
		"CÉLINE",
		"jean.dupont@example.com",
		"o'neil",
		"anne-marie",
		"user_42",
		"a",
	}

	for _, input := range validInputs {
		t.Run(input, func(t *testing.T) {
			if err := validator.ValidateInput(input); err != nil {
				t.Errorf("Expected no error for valid input '%s', got: %v", input, err)
			}
		})
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	validator := NewDataValidator()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "input cannot be empty"},
		{"whitespace", "  \t\n ", "input cannot be empty"},
		{"too long", strings.Repeat("ab", 51), "input too long: maximum 100 characters"},
		{"too many words", "a b c d e f g", "search query too complex: maximum 6 words allowed"},
		{"script", "<script>alert(1)</script>", "input contains potentially dangerous content"},
		{"script upper case", "<SCRIPT>", "input contains potentially dangerous content"},
		{"sql", "x' or 1=1", "input contains potentially dangerous content"},
		{"nosql", "{$ne:1}", "input contains potentially dangerous content"},
		{"traversal", "../etc", "input contains potentially dangerous content"},
		{"invalid char", "dupont#1", "input contains invalid characters"},
		{"emoji", "dupont 😀", "input contains invalid characters"},
		{"repetition", "aaaaaaaaaaa", "input contains excessive character repetition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateInput(tt.input)
			if err == nil {
				t.Fatalf("Expected error for input '%s'", tt.input)
			}
			if !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("Expected error '%s', got '%s'", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	validator := NewDataValidator()

	if err := validator.ValidateID("7f1f5ad2-1f3b-4c8e-9a53-8a4c1d0b8e11"); err != nil {
		t.Errorf("Expected valid uuid, got %v", err)
	}

	for _, id := range []string{"", "  ", "42", "not-a-uuid", "7f1f5ad2-1f3b-4c8e-9a53"} {
		if err := validator.ValidateID(id); err == nil {
			t.Errorf("Expected error for id %q", id)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	validator := NewDataValidator()

	valid := []string{"a@example.com", "jean.dupont+slim@clinique.fr", " padded@example.org "}
	for _, email := range valid {
		if err := validator.ValidateEmail(email); err != nil {
			t.Errorf("Expected %q to be valid, got %v", email, err)
		}
	}

	invalid := map[string]string{
		"":                   "email is required",
		"no-at-sign":         "invalid email format",
		"a@b":                "invalid email format",
		"a b@example.com":    "invalid email format",
		strings.Repeat("a", 250) + "@example.com": "email too long",
	}
	for email, want := range invalid {
		err := validator.ValidateEmail(email)
		if err == nil {
			t.Errorf("Expected error for %q", email)
			continue
		}
		if !strings.HasPrefix(err.Error(), want) {
			t.Errorf("Expected error %q for %q, got %q", want, email, err.Error())
		}
	}
}

func TestValidatePassword(t *testing.T) {
	validator := NewDataValidator()

	tests := []struct {
		password string
		wantErr  bool
	}{
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"éééééééé", false},
		{strings.Repeat("x", 72), false},
		{strings.Repeat("x", 73), true},
	}

	for _, tt := range tests {
		err := validator.ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestValidateName(t *testing.T) {
	validator := NewDataValidator()

	if err := validator.ValidateName("Dr. Héloïse Martin"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}

	for _, name := range []string{"", "   ", strings.Repeat("n", 101), "<script>x"} {
		if err := validator.ValidateName(name); err == nil {
			t.Errorf("Expected error for name %q", name)
		}
	}
}

func TestValidateDemandeStatus(t *testing.T) {
	validator := NewDataValidator()

	for _, input := range []string{"pending", "in_progress", "done", " done "} {
		status, err := validator.ValidateDemandeStatus(input)
		if err != nil {
			t.Errorf("Expected %q to be valid, got %v", input, err)
		}
		if !status.Valid() {
			t.Errorf("Returned status %q is not valid", status)
		}
	}

	for _, input := range []string{"", "archived", "DONE", "in-progress"} {
		if _, err := validator.ValidateDemandeStatus(input); err == nil {
			t.Errorf("Expected error for status %q", input)
		}
	}
}

func TestValidateActionPlan(t *testing.T) {
	validator := NewDataValidator()
	profiles := []entities.PlanProfile{{Name: "metabolique", Percentage: "62.0%"}}
	sections := entities.PlanSections{
		Dietetique:       []string{"Réduire les sucres rapides"},
		ActivitePhysique: []string{"Marche rapide 30 min par jour"},
	}

	if err := validator.ValidateActionPlan(profiles, sections); err != nil {
		t.Fatalf("Expected valid plan, got %v", err)
	}

	tests := []struct {
		name     string
		profiles []entities.PlanProfile
		sections entities.PlanSections
		wantErr  string
	}{
		{"no profiles", nil, sections, "at least one profile is required"},
		{"unnamed profile", []entities.PlanProfile{{Name: " "}}, sections, "profile 1 has no name"},
		{"no items", profiles, entities.PlanSections{}, "at least one action item is required"},
		{
			"empty item",
			profiles,
			entities.PlanSections{Medicaments: []string{""}},
			"empty item in section medicaments",
		},
		{
			"long item",
			profiles,
			entities.PlanSections{Interventions: []string{strings.Repeat("x", 501)}},
			"item too long in section interventions",
		},
		{
			"dangerous item",
			profiles,
			entities.PlanSections{Micronutrition: []string{"<script>alert(1)</script>"}},
			"item in section micronutrition contains potentially dangerous content",
		},
		{
			"too many items",
			profiles,
			entities.PlanSections{Dietetique: make201Items()},
			"too many action items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateActionPlan(tt.profiles, tt.sections)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("Expected error '%s', got '%s'", tt.wantErr, err.Error())
			}
		})
	}
}

func make201Items() []string {
	items := make([]string, 201)
	for i := range items {
		items[i] = "item"
	}
	return items
}

func TestHasExcessiveRepetition(t *testing.T) {
	validator := &DataValidatorImpl{}

	tests := []struct {
		input    string
		expected bool
	}{
		{"normal", false},
		{"aaaaaaaaaa", false},
		{"aaaaaaaaaaa", true},
		{"abababababababab", false},
		{"x11111111111y", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := validator.hasExcessiveRepetition(tt.input); got != tt.expected {
			t.Errorf("hasExcessiveRepetition(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func BenchmarkValidateInput(b *testing.B) {
	validator := NewDataValidator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = validator.ValidateInput("jean dupont")
	}
}

package entities

import "time"

// PlanProfile is a profile retained by the clinician when building a plan.
type PlanProfile struct {
	Name       string `json:"name"`
	Percentage string `json:"percentage,omitempty"`
}

// PlanSections groups the selected care items by section.
type PlanSections struct {
	Dietetique       []string `json:"dietetique"`
	ActivitePhysique []string `json:"activitePhysique"`
	Micronutrition   []string `json:"micronutrition"`
	Medicaments      []string `json:"medicaments"`
	Interventions    []string `json:"interventions"`
}

// Total returns the number of selected items across all sections.
func (s PlanSections) Total() int {
	return len(s.Dietetique) + len(s.ActivitePhysique) + len(s.Micronutrition) +
		len(s.Medicaments) + len(s.Interventions)
}

// ByKey exposes the sections keyed by their JSON name, in display order.
func (s *PlanSections) ByKey() []SectionRef {
	return []SectionRef{
		{Key: "dietetique", Items: &s.Dietetique},
		{Key: "activitePhysique", Items: &s.ActivitePhysique},
		{Key: "micronutrition", Items: &s.Micronutrition},
		{Key: "medicaments", Items: &s.Medicaments},
		{Key: "interventions", Items: &s.Interventions},
	}
}

// SectionRef points at one section of a PlanSections value.
type SectionRef struct {
	Key   string
	Items *[]string
}

// ActionPlan is a care plan attached to a demande or assigned to a user.
type ActionPlan struct {
	ID        string        `json:"id"`
	DemandeID string        `json:"demandeId,omitempty"`
	UserID    string        `json:"userId,omitempty"`
	Profiles  []PlanProfile `json:"profiles"`
	Sections  PlanSections  `json:"sections"`
	CreatedBy string        `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

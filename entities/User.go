package entities

import "time"

// User is an account of the intake platform. Patients fill their profile
// through onboarding; administrators review it from the dashboard.
type User struct {
	ID                  string         `json:"id"`
	Email               string         `json:"email"`
	Name                string         `json:"name"`
	PasswordHash        string         `json:"-"` // stored in its own column, never serialised
	IsAdmin             bool           `json:"isAdmin"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	LastLoginAt         *time.Time     `json:"lastLoginAt,omitempty"`
	OnboardingCompleted bool           `json:"onboardingCompleted"`
	OnboardingStep      int            `json:"onboardingStep"`
	RequestedPlan       bool           `json:"requestedPlan"`
	AssignedPlan        string         `json:"assignedPlan,omitempty"`
	BasicInfo           BasicInfo      `json:"basicInfo"`
	LabResults          LabResults     `json:"labResults"`
	MedicalHistory      MedicalHistory `json:"medicalHistory"`
	Lifestyle           Lifestyle      `json:"lifestyle"`
	SessionInfo         SessionInfo    `json:"sessionInfo"`
	AIAnalysis          *AIAnalysis    `json:"aiAnalysis,omitempty"`
}

type BasicInfo struct {
	Name               string  `json:"name,omitempty"`
	Gender             string  `json:"gender,omitempty"`
	DateOfBirth        string  `json:"dateOfBirth,omitempty"`
	Height             float64 `json:"height,omitempty"`
	Weight             float64 `json:"weight,omitempty"`
	Profession         string  `json:"profession,omitempty"`
	NumberOfChildren   *int    `json:"numberOfChildren,omitempty"`
	Smoking            string  `json:"smoking,omitempty"`
	Alcohol            string  `json:"alcohol,omitempty"`
	ActivityLevel      string  `json:"activityLevel,omitempty"`
	InitialFatMass     float64 `json:"initialFatMass,omitempty"`
	InitialMuscleMass  float64 `json:"initialMuscleMass,omitempty"`
	FatMassTarget      float64 `json:"fatMassTarget,omitempty"`
	MuscleMassTarget   float64 `json:"muscleMassTarget,omitempty"`
	WaistCircumference float64 `json:"waistCircumference,omitempty"`
	HipCircumference   float64 `json:"hipCircumference,omitempty"`
}

type LabResults struct {
	TSH float64 `json:"tsh,omitempty"`
}

type MedicalHistory struct {
	PersonalMedicalHistory PersonalMedicalHistory `json:"personalMedicalHistory"`
	FamilyHistory          *FamilyHistory         `json:"familyHistory,omitempty"`
	FemaleSpecific         FemaleSpecific         `json:"femaleSpecificAttributes"`
	TreatmentHistory       TreatmentHistory       `json:"treatmentHistory"`
	Medications            string                 `json:"medications,omitempty"`
}

// PersonalMedicalHistory answers are "yes" or "no".
type PersonalMedicalHistory struct {
	DiabetesDT1         string `json:"diabetesDT1,omitempty"`
	DiabetesDT2         string `json:"diabetesDT2,omitempty"`
	SleepApnea          string `json:"sleepApnea,omitempty"`
	Hypothyroidism      string `json:"hypothyroidism,omitempty"`
	DigestiveIssues     string `json:"digestiveIssues,omitempty"`
	PsychologicalIssues string `json:"psychologicalIssues,omitempty"`
}

type FamilyHistory struct {
	HeartDisease  string `json:"heartDisease,omitempty"`
	Diabetes      string `json:"diabetes,omitempty"`
	Obesity       string `json:"obesity,omitempty"`
	ThyroidIssues string `json:"thyroidIssues,omitempty"`
}

type FemaleSpecific struct {
	SOPK          string `json:"sopk,omitempty"`
	Contraception string `json:"contraception,omitempty"`
}

type TreatmentHistory struct {
	MedicalTreatment string `json:"medicalTreatment,omitempty"`
}

type Lifestyle struct {
	SleepQuality      string      `json:"sleepQuality,omitempty"`
	StressLevel       StressLevel `json:"stressLevel,omitzero"`
	ExerciseFrequency string      `json:"exerciseFrequency,omitempty"`
	Smoking           string      `json:"smoking,omitempty"`
	Alcohol           string      `json:"alcohol,omitempty"`
}

type SessionInfo struct {
	TotalXPEarned int `json:"totalXPEarned"`
}

// AIAnalysis keeps the last classifier result computed for the user.
type AIAnalysis struct {
	LastPrediction *PredictionRecord `json:"lastPrediction,omitempty"`
	LastUpdate     time.Time         `json:"lastUpdate"`
}

// UserSummary is the row shown in the administration user list.
type UserSummary struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	IsAdmin             bool       `json:"isAdmin"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	OnboardingStep      int        `json:"onboardingStep"`
	RequestedPlan       bool       `json:"requestedPlan"`
	AssignedPlan        bool       `json:"assignedPlan"`
	ProfileCompleteness int        `json:"profileCompleteness"`
}

// DisplayName returns the profile name, falling back to the account name.
func (u *User) DisplayName() string {
	if u.BasicInfo.Name != "" {
		return u.BasicInfo.Name
	}
	return u.Name
}

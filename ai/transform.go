package ai

import (
	"math"
	"strings"
	"time"

	"github.com/giygas/slim-api/entities"
)

var professionMap = map[string]string{
	"student":    "etudiant",
	"employee":   "employé",
	"unemployed": "sans emploi",
	"retired":    "retraité",
	"manager":    "cadre",
	"worker":     "ouvrier",
}

var activityMap = map[string]string{
	"sedentary":         "sédentaire",
	"lightly-active":    "modérée",
	"moderately-active": "modérée",
	"very-active":       "sportif",
	"extra-active":      "sportif",
	"super-active":      "sportif",
}

var stressLabels = map[string]string{
	"low":      "faible",
	"moderate": "moyen",
	"high":     "élevé",
}

var exerciseSessions = map[string]float64{
	"0":   0,
	"1-2": 2,
	"3-4": 4,
	"5-6": 6,
	"7+":  7,
}

// Family history entries, in the order they are listed in the payload
var familyConditions = []struct {
	label string
	get   func(*entities.FamilyHistory) string
}{
	{"Maladies cardiovasculaires", func(f *entities.FamilyHistory) string { return f.HeartDisease }},
	{"Diabète", func(f *entities.FamilyHistory) string { return f.Diabetes }},
	{"Obésité", func(f *entities.FamilyHistory) string { return f.Obesity }},
	{"Problèmes thyroïdiens", func(f *entities.FamilyHistory) string { return f.ThyroidIssues }},
}

// NoFamilyHistory is sent when no family condition is reported.
const NoFamilyHistory = "Aucune information"

// FromUser builds the classifier payload from a stored user profile.
// Only answered questions are mapped, apart from the text columns which
// default to "non". The result is not clamped, callers validate it with
// ValidateRequired before sending.
func FromUser(u *entities.User, now time.Time) Payload {
	p := Payload{}
	info := u.BasicInfo

	if info.Gender != "" {
		p[FieldSexe] = MapGender(info.Gender)
	}
	if info.DateOfBirth != "" {
		if dob, ok := ParseBirthDate(info.DateOfBirth); ok {
			p[FieldAge] = float64(AgeAt(dob, now))
		}
	}
	if info.Height != 0 {
		p[FieldTaille] = info.Height
	}
	if info.Weight != 0 {
		p[FieldP0] = info.Weight
	}
	if u.LabResults.TSH != 0 {
		p[FieldTSH] = u.LabResults.TSH
	}

	if info.Profession != "" {
		p[FieldProfession] = MapProfession(info.Profession)
	}
	if info.NumberOfChildren != nil {
		p[FieldNbEnfants] = float64(*info.NumberOfChildren)
	}

	med := u.MedicalHistory.PersonalMedicalHistory
	setYesNo(p, FieldDT2, med.DiabetesDT2)
	setYesNo(p, FieldDT1, med.DiabetesDT1)
	setYesNo(p, FieldSAS, med.SleepApnea)
	setYesNo(p, FieldHypothyroidie, med.Hypothyroidism)
	setYesNo(p, FieldTroublesDigestif, med.DigestiveIssues)
	setYesNo(p, FieldSOPK, u.MedicalHistory.FemaleSpecific.SOPK)
	setYesNo(p, FieldContraception, u.MedicalHistory.FemaleSpecific.Contraception)

	life := u.Lifestyle
	if life.SleepQuality != "" {
		p[FieldTroubleSommeil] = yesNoIf(life.SleepQuality == "poor")
	}
	if !life.StressLevel.IsZero() {
		p[FieldNiveauStress] = MapStressLevel(life.StressLevel)
	}
	if info.ActivityLevel != "" {
		p[FieldActivite] = MapActivityLevel(info.ActivityLevel)
	}
	if smoking := firstNonEmpty(info.Smoking, life.Smoking); smoking != "" {
		p[FieldTabac] = yesNoIf(smoking != "non_smoker")
	}
	if alcohol := firstNonEmpty(info.Alcohol, life.Alcohol); alcohol != "" {
		p[FieldAlcool] = yesNoIf(alcohol != "no_alcohol")
	}
	if life.ExerciseFrequency != "" {
		p[FieldSeancesSport] = MapExerciseFrequency(life.ExerciseFrequency)
	}

	if info.InitialFatMass != 0 {
		p[FieldMG0] = info.InitialFatMass
	}
	if info.InitialMuscleMass != 0 {
		p[FieldMM0] = info.InitialMuscleMass
	}
	if info.FatMassTarget != 0 {
		p[FieldObjectifMG] = info.FatMassTarget
	}
	if info.MuscleMassTarget != 0 {
		p[FieldObjectifMM] = info.MuscleMassTarget
	}

	if u.MedicalHistory.Medications != "" {
		p[FieldTraitements] = u.MedicalHistory.Medications
	}
	if u.MedicalHistory.FamilyHistory != nil {
		p[FieldTerrainFamilial] = FamilyHistoryText(u.MedicalHistory.FamilyHistory)
	}
	if med.PsychologicalIssues != "" {
		p[FieldTroublePsy] = yesNoIf(isYes(med.PsychologicalIssues))
	}
	if tt := u.MedicalHistory.TreatmentHistory.MedicalTreatment; tt != "" {
		p[FieldTTMedical] = yesNoIf(isYes(tt))
	}

	for _, name := range ColumnFields() {
		if _, ok := p[name]; !ok {
			p[name] = fieldsByName[name].Default
		}
	}
	return p
}

// MapGender converts a profile gender to the classifier's M/F code.
func MapGender(gender string) string {
	switch strings.TrimSpace(gender) {
	case "male", "Homme":
		return "M"
	default:
		return "F"
	}
}

// MapProfession converts an onboarding profession; unknown values map to employé.
func MapProfession(profession string) string {
	if v, ok := professionMap[strings.ToLower(profession)]; ok {
		return v
	}
	return "employé"
}

// MapStressLevel converts a 1-10 score or a label; unknown labels map to moyen.
func MapStressLevel(level entities.StressLevel) string {
	if level.Score != nil {
		switch score := *level.Score; {
		case score <= 3:
			return "faible"
		case score <= 7:
			return "moyen"
		default:
			return "élevé"
		}
	}
	if v, ok := stressLabels[strings.ToLower(level.Label)]; ok {
		return v
	}
	return "moyen"
}

// MapActivityLevel converts an onboarding activity level; unknown values map to sédentaire.
func MapActivityLevel(level string) string {
	if v, ok := activityMap[strings.ToLower(level)]; ok {
		return v
	}
	return "sédentaire"
}

// MapExerciseFrequency converts a frequency bucket into weekly sessions.
func MapExerciseFrequency(freq string) float64 {
	return exerciseSessions[strings.TrimSpace(freq)]
}

// FamilyHistoryText lists the reported family conditions.
func FamilyHistoryText(f *entities.FamilyHistory) string {
	if f == nil {
		return NoFamilyHistory
	}
	var found []string
	for _, c := range familyConditions {
		if isYes(c.get(f)) {
			found = append(found, c.label)
		}
	}
	if len(found) == 0 {
		return NoFamilyHistory
	}
	return strings.Join(found, ", ")
}

var birthDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"02/01/2006",
}

// ParseBirthDate accepts ISO timestamps, ISO dates and French dd/mm/yyyy dates.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeAt returns the age in full years at now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return int(math.Max(0, float64(age)))
}

func setYesNo(p Payload, field, answer string) {
	if answer == "" {
		return
	}
	p[field] = yesNoIf(isYes(answer))
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "oui", "true":
		return true
	}
	return false
}

func yesNoIf(cond bool) string {
	if cond {
		return Oui
	}
	return Non
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

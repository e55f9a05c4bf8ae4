// Package ai maps patient data onto the payload expected by the obesity
// profile classifier and proxies prediction requests to it.
//
// The payload schema is described once, in the fields table below. Every
// consumer (normalisation of intake forms, transformation of user profiles,
// required field validation) reads its ranges, enums and defaults from it.
package ai

// Payload field names, as expected by the classifier.
const (
	FieldSexe                  = "Sexe"
	FieldAge                   = "Age"
	FieldTaille                = "Taille"
	FieldP0                    = "P0"
	FieldTSH                   = "TSH"
	FieldDT1                   = "DT1"
	FieldDT2                   = "DT2"
	FieldSAS                   = "SAS"
	FieldHypothyroidie         = "Hypothyroidie"
	FieldSOPK                  = "SOPK"
	FieldTroublesDigestif      = "troubles digestif"
	FieldTroubleSommeil        = "trouble du sommeil"
	FieldProfession            = "profession"
	FieldNbEnfants             = "Nb enfants"
	FieldNiveauStress          = "niveau de stress"
	FieldPsychotherapie        = "Psychothérapie"
	FieldActivite              = "activité"
	FieldRegimesAnterieurs     = "régimes antérieures"
	FieldTabac                 = "Tabac"
	FieldAlcool                = "alcool"
	FieldSeancesSport          = "Nombre de séance sport/semaine"
	FieldTravailPoste          = "Travail posté"
	FieldContraception         = "contraception hormonale"
	FieldAccouchementRecent    = "accouchement / avortement< 2 ans"
	FieldMenopause             = "Menopause/Peri"
	FieldTraitementAntiObesite = "traitement anti-obésité antérieur"
	FieldMG0                   = "MG0"
	FieldMM0                   = "MM0"
	FieldObjectifMG            = "OBJECTIF MG"
	FieldObjectifMM            = "Objectif MM"
	FieldTerrainFamilial       = "terrain familial"
	FieldTroublePsy            = "trouble psy"
	FieldTraitements           = "traitements"
	FieldTTMedical             = "TT medical"
)

// Yes/no values used by the classifier
const (
	Oui = "oui"
	Non = "non"
)

// Kind tells how a field value is validated.
type Kind int

const (
	KindNumber Kind = iota
	KindEnum
	KindText
)

// Field describes one entry of the classifier payload.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Column fields are read unconditionally by the classifier, so they
	// are always sent, with their default when unanswered.
	Column  bool
	Min     float64
	Max     float64
	Allowed []string
	Default any
}

var yesNo = []string{Oui, Non}

func number(name string, min, max, def float64) Field {
	return Field{Name: name, Kind: KindNumber, Min: min, Max: max, Default: def}
}

func enum(name string, def string, allowed ...string) Field {
	return Field{Name: name, Kind: KindEnum, Allowed: allowed, Default: def}
}

func flag(name string) Field {
	return Field{Name: name, Kind: KindEnum, Allowed: yesNo, Default: Non}
}

func text(name string) Field {
	return Field{Name: name, Kind: KindText, Column: true, Default: Non}
}

func required(f Field) Field {
	f.Required = true
	return f
}

// fields is ordered like the classifier's feature documentation.
var fields = []Field{
	required(enum(FieldSexe, "M", "M", "F")),
	required(number(FieldAge, 18, 80, 35)),
	required(number(FieldTaille, 140, 200, 170)),
	required(number(FieldP0, 40, 200, 75)),
	required(number(FieldTSH, 0.1, 15.0, 2.5)),

	flag(FieldDT1),
	flag(FieldDT2),
	flag(FieldSAS),
	flag(FieldHypothyroidie),
	flag(FieldSOPK),
	flag(FieldTroublesDigestif),
	flag(FieldTroubleSommeil),

	enum(FieldProfession, "cadre", "etudiant", "employé", "sans emploi", "retraité", "cadre", "ouvrier"),
	number(FieldNbEnfants, 0, 10, 0),
	enum(FieldNiveauStress, "faible", "faible", "moyen", "élevé"),
	flag(FieldPsychotherapie),
	enum(FieldActivite, "sédentaire", "sédentaire", "modérée", "sportif"),
	flag(FieldRegimesAnterieurs),
	flag(FieldTabac),
	flag(FieldAlcool),
	number(FieldSeancesSport, 0, 10, 0),
	flag(FieldTravailPoste),

	flag(FieldContraception),
	flag(FieldAccouchementRecent),
	flag(FieldMenopause),

	enum(FieldTraitementAntiObesite, Non, Non, "sleeve", "liposuccion", "ballon gastrique", "anneau gastrique"),

	number(FieldMG0, 5, 60, 25),
	number(FieldMM0, 20, 80, 25),
	number(FieldObjectifMG, 0, 30, 20),
	number(FieldObjectifMM, 0, 20, 5),

	text(FieldTerrainFamilial),
	text(FieldTroublePsy),
	text(FieldTraitements),
	text(FieldTTMedical),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}()

// Fields returns a copy of the payload schema.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Lookup returns the schema entry for name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// RequiredFields returns the names of the mandatory payload fields.
func RequiredFields() []string {
	var names []string
	for _, f := range fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// ColumnFields returns the names of the fields sent even when unanswered.
func ColumnFields() []string {
	var names []string
	for _, f := range fields {
		if f.Column {
			names = append(names, f.Name)
		}
	}
	return names
}

// IsNumeric reports whether name is a numeric payload field.
func IsNumeric(name string) bool {
	f, ok := fieldsByName[name]
	return ok && f.Kind == KindNumber
}

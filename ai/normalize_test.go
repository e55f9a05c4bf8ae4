package ai

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RequiredDefaults(t *testing.T) {
	p := Normalize(map[string]any{})

	require.Len(t, p, len(RequiredFields())+len(ColumnFields()))
	assert.Equal(t, "M", p[FieldSexe])
	assert.Equal(t, 35.0, p[FieldAge])
	assert.Equal(t, 170.0, p[FieldTaille])
	assert.Equal(t, 75.0, p[FieldP0])
	assert.Equal(t, 2.5, p[FieldTSH])
}

func TestNormalize_NumericFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
		in    any
		want  float64
	}{
		{"in range", FieldAge, 42.0, 42},
		{"clamped low", FieldAge, 12.0, 18},
		{"clamped high", FieldAge, 95.0, 80},
		{"numeric string", FieldTaille, "168", 168},
		{"decimal comma", FieldTSH, "3,2", 3.2},
		{"json number", FieldP0, json.Number("88.5"), 88.5},
		{"int", FieldNbEnfants, 3, 3},
		{"garbage string", FieldP0, "heavy", 75},
		{"empty string", FieldTaille, "", 170},
		{"NaN", FieldTSH, math.NaN(), 2.5},
		{"bool", FieldMG0, true, 25},
		{"MG0 high", FieldMG0, 80.0, 60},
		{"MM0 low", FieldMM0, 1.0, 20},
		{"objectif MG", FieldObjectifMG, 45.0, 30},
		{"objectif MM", FieldObjectifMM, -3.0, 0},
		{"sport sessions", FieldSeancesSport, "14", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(map[string]any{tt.field: tt.in})
			got, ok := p.Number(tt.field)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalize_EnumFields(t *testing.T) {
	tests := []struct {
		field string
		in    any
		want  string
	}{
		{FieldSexe, "F", "F"},
		{FieldSexe, "female", "M"},
		{FieldNiveauStress, "élevé", "élevé"},
		{FieldNiveauStress, "high", "faible"},
		{FieldActivite, " modérée ", "modérée"},
		{FieldActivite, "active", "sédentaire"},
		{FieldProfession, "ouvrier", "ouvrier"},
		{FieldProfession, "pilot", "cadre"},
		{FieldTraitementAntiObesite, "sleeve", "sleeve"},
		{FieldTraitementAntiObesite, "bypass", Non},
		{FieldDT2, Oui, Oui},
		{FieldDT2, "yes", Non},
		{FieldMenopause, 1.0, Non},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p := Normalize(map[string]any{tt.field: tt.in})
			assert.Equal(t, tt.want, p[tt.field])
		})
	}
}

func TestNormalize_OptionalFieldsOnlyWhenPresent(t *testing.T) {
	p := Normalize(map[string]any{
		FieldSAS:             Oui,
		FieldTerrainFamilial: []any{"Diabète", "Obésité"},
		FieldTroublePsy:      nil,
		"unknown":            "dropped",
	})

	assert.Equal(t, Oui, p[FieldSAS])
	assert.Equal(t, "Diabète, Obésité", p[FieldTerrainFamilial])
	assert.NotContains(t, p, FieldDT1)
	assert.NotContains(t, p, "unknown")
}

func TestNormalize_TextColumnsAlwaysSent(t *testing.T) {
	p := Normalize(map[string]any{
		FieldTroublePsy:  nil,
		FieldTraitements: "  ",
		FieldTTMedical:   []any{},
	})

	assert.Equal(t, []string{FieldTerrainFamilial, FieldTroublePsy, FieldTraitements, FieldTTMedical}, ColumnFields())
	for _, name := range ColumnFields() {
		assert.Equal(t, Non, p[name], name)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 15.0, Clamp(FieldTSH, 40))
	assert.Equal(t, 0.1, Clamp(FieldTSH, 0))
	assert.Equal(t, 99.0, Clamp(FieldSexe, 99))
	assert.Equal(t, 99.0, Clamp("unknown", 99))
}

func TestSchema(t *testing.T) {
	assert.Equal(t, []string{FieldSexe, FieldAge, FieldTaille, FieldP0, FieldTSH}, RequiredFields())
	assert.True(t, IsNumeric(FieldNbEnfants))
	assert.False(t, IsNumeric(FieldTabac))

	f, ok := Lookup(FieldNiveauStress)
	require.True(t, ok)
	assert.Equal(t, KindEnum, f.Kind)
	assert.Equal(t, []string{"faible", "moyen", "élevé"}, f.Allowed)

	// mutating the returned copy must not touch the schema
	all := Fields()
	all[0].Name = "changed"
	assert.Equal(t, FieldSexe, Fields()[0].Name)
}

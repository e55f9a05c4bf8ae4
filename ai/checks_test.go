package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/slim-api/entities"
)

func validPayload() Payload {
	return Payload{FieldSexe: "F", FieldAge: 40.0, FieldTaille: 160.0, FieldP0: 85.0, FieldTSH: 2.1}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Payload)
		wantErr error
		missing []string
	}{
		{name: "valid", mutate: func(Payload) {}},
		{name: "numeric strings", mutate: func(p Payload) { p[FieldAge] = "40"; p[FieldTSH] = "2,1" }},
		{
			name:    "missing sexe and TSH",
			mutate:  func(p Payload) { delete(p, FieldSexe); delete(p, FieldTSH) },
			wantErr: ErrMissingRequired,
			missing: []string{FieldSexe, FieldTSH},
		},
		{
			name:    "zero height counts as missing",
			mutate:  func(p Payload) { p[FieldTaille] = 0.0 },
			wantErr: ErrMissingRequired,
			missing: []string{FieldTaille},
		},
		{
			name:    "blank string counts as missing",
			mutate:  func(p Payload) { p[FieldSexe] = "  " },
			wantErr: ErrMissingRequired,
			missing: []string{FieldSexe},
		},
		{name: "too young", mutate: func(p Payload) { p[FieldAge] = 17.0 }, wantErr: ErrOutOfRange},
		{name: "too old", mutate: func(p Payload) { p[FieldAge] = 81.0 }, wantErr: ErrOutOfRange},
		{name: "age not a number", mutate: func(p Payload) { p[FieldAge] = "forty" }, wantErr: ErrOutOfRange},
		{name: "TSH too high", mutate: func(p Payload) { p[FieldTSH] = 15.5 }, wantErr: ErrOutOfRange},
		{name: "TSH boundaries", mutate: func(p Payload) { p[FieldTSH] = 15.0; p[FieldAge] = 18.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)
			err := ValidateRequired(p)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.missing != nil {
				var mfe *MissingFieldsError
				require.True(t, errors.As(err, &mfe))
				assert.Equal(t, tt.missing, mfe.Fields)
			}
		})
	}
}

func TestValidateRequired_RangeMessages(t *testing.T) {
	p := validPayload()
	p[FieldAge] = 90.0
	assert.Contains(t, ValidateRequired(p).Error(), "Age must be between 18 and 80 years")

	p = validPayload()
	p[FieldTSH] = 0.05
	assert.Contains(t, ValidateRequired(p).Error(), "TSH must be between 0.1 and 15.0")
}

func TestCheckUserData(t *testing.T) {
	assert.Empty(t, CheckUserData(completeUser()))
	assert.Equal(t,
		[]string{"gender", "date of birth", "height", "weight", "TSH lab result"},
		CheckUserData(&entities.User{}))

	u := completeUser()
	u.LabResults.TSH = 0
	assert.Equal(t, []string{"TSH lab result"}, CheckUserData(u))
}

func TestCompleteness(t *testing.T) {
	empty := Completeness(&entities.User{})
	assert.Equal(t, DataCompleteness{Percentage: 0, CompletedFields: 0, TotalFields: 13, Quality: "low"}, empty)

	full := completeUser()
	c := Completeness(full)
	assert.Equal(t, 13, c.TotalFields)
	assert.Equal(t, 13, c.CompletedFields)
	assert.Equal(t, 100, c.Percentage)
	assert.Equal(t, "high", c.Quality)

	partial := &entities.User{BasicInfo: entities.BasicInfo{
		Gender: "male", DateOfBirth: "1980-01-01", Height: 180, Weight: 90,
		Profession: "worker", Smoking: "smoker", Alcohol: "no_alcohol",
	}, LabResults: entities.LabResults{TSH: 2}}
	c = Completeness(partial)
	assert.Equal(t, 8, c.CompletedFields)
	assert.Equal(t, 62, c.Percentage)
	assert.Equal(t, "medium", c.Quality)
}

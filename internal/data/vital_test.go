package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"healthtrack.zzh.net/internal/validator"
)

func validVital() *Vital {
    return &Vital{
        MemberID:   1,
        VitalType:  "heart_rate",
        Value:      72,
        Unit:       "bpm",
        RecordedAt: time.Now(),
    }
}

func TestValidateVital(t *testing.T) {
    tests := []struct {
        name      string
        mutate    func(*Vital)
        wantField string
    }{
        {name: "valid", mutate: func(v *Vital) {}},
        {name: "missing type", mutate: func(v *Vital) { v.VitalType = "" }, wantField: "vital_type"},
        {name: "zero value", mutate: func(v *Vital) { v.Value = 0 }, wantField: "value"},
        {name: "negative value", mutate: func(v *Vital) { v.Value = -10 }, wantField: "value"},
        {name: "missing unit", mutate: func(v *Vital) { v.Unit = "" }, wantField: "unit"},
        {name: "missing recorded_at", mutate: func(v *Vital) { v.RecordedAt = time.Time{} }, wantField: "recorded_at"},
        {name: "future recorded_at", mutate: func(v *Vital) { v.RecordedAt = time.Now().Add(time.Hour) }, wantField: "recorded_at"},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            vital := validVital()
            tt.mutate(vital)

            v := validator.New()
            ValidateVital(v, vital)

            if tt.wantField == "" {
                assert.True(t, v.Valid(), "unexpected errors: %v", v.Errors)
            } else {
                assert.Contains(t, v.Errors, tt.wantField)
            }
        })
    }
}

func TestValidateMember(t *testing.T) {
    member := &Member{
        Name:        "Alice",
        DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
        Gender:      "female",
        Relation:    "mother",
    }

    v := validator.New()
    ValidateMember(v, member)
    assert.True(t, v.Valid(), "unexpected errors: %v", v.Errors)

    v = validator.New()
    member.Gender = "unknown"
    ValidateMember(v, member)
    assert.Contains(t, v.Errors, "gender")

    v = validator.New()
    member.Gender = "female"
    member.DateOfBirth = time.Now().Add(48 * time.Hour)
    ValidateMember(v, member)
    assert.Contains(t, v.Errors, "date_of_birth")
}

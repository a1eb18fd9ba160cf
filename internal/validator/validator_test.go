package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndValid(t *testing.T) {
    v := New()
    assert.True(t, v.Valid())

    v.Check(true, "ok", "should not be recorded")
    assert.True(t, v.Valid())

    v.Check(false, "name", "must be provided")
    assert.False(t, v.Valid())
    assert.Equal(t, "must be provided", v.Errors["name"])

    // First error for a key wins.
    v.AddError("name", "second message")
    assert.Equal(t, "must be provided", v.Errors["name"])
}

func TestEmailRX(t *testing.T) {
    tests := []struct {
        email string
        valid bool
    }{
        {"alice@example.com", true},
        {"bob.smith+tag@sub.example.co.uk", true},
        {"", false},
        {"not-an-email", false},
        {"@example.com", false},
        {"alice@", false},
    }

    for _, tt := range tests {
        t.Run(tt.email, func(t *testing.T) {
            assert.Equal(t, tt.valid, Matches(tt.email, EmailRX))
        })
    }
}

func TestPermittedValue(t *testing.T) {
    assert.True(t, PermittedValue("blood_pressure", "blood_pressure", "heart_rate"))
    assert.False(t, PermittedValue("oxygen", "blood_pressure", "heart_rate"))
}

func TestUnique(t *testing.T) {
    assert.True(t, Unique([]string{"a", "b", "c"}))
    assert.False(t, Unique([]string{"a", "b", "a"}))
}

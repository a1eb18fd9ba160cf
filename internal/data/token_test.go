package data

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthtrack.zzh.net/internal/validator"
)

func TestGenerateToken(t *testing.T) {
    token, err := generateToken(7, 24*time.Hour, ScopeAuthentication)
    require.NoError(t, err)

    assert.Equal(t, int64(7), token.UserID)
    assert.Equal(t, ScopeAuthentication, token.Scope)
    assert.Len(t, token.Plaintext, 26)
    assert.WithinDuration(t, time.Now().Add(24*time.Hour), token.Expiry, time.Minute)

    hash := sha256.Sum256([]byte(token.Plaintext))
    assert.Equal(t, hash[:], token.Hash)

    // The plaintext passes its own validation.
    v := validator.New()
    ValidateTokenPlaintext(v, token.Plaintext)
    assert.True(t, v.Valid())

    other, err := generateToken(7, 24*time.Hour, ScopeAuthentication)
    require.NoError(t, err)
    assert.NotEqual(t, token.Plaintext, other.Plaintext)
}

func TestValidateTokenPlaintext(t *testing.T) {
    v := validator.New()
    ValidateTokenPlaintext(v, "")
    assert.Contains(t, v.Errors, "token")

    v = validator.New()
    ValidateTokenPlaintext(v, "too-short")
    assert.Contains(t, v.Errors, "token")
}

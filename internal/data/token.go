package data

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"

	"healthtrack.zzh.net/internal/validator"
)

const (
    ScopeActivation     = "activation"
    ScopeAuthentication = "authentication"
)

// Token holds the data for an individual token. The Plaintext field is only
// ever populated on the token we just generated; at rest only the SHA-256 hash
// is stored.
type Token struct {
    Plaintext string    `json:"token"`
    Hash      []byte    `json:"-"`
    UserID    int64     `json:"-"`
    Expiry    time.Time `json:"expiry"`
    Scope     string    `json:"-"`
}

func generateToken(userID int64, ttl time.Duration, scope string) (*Token, error) {
    token := &Token{
        UserID: userID,
        Expiry: time.Now().Add(ttl),
        Scope:  scope,
    }

    randomBytes := make([]byte, 16)

    _, err := rand.Read(randomBytes)
    if err != nil {
        return nil, err
    }

    token.Plaintext = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)

    hash := sha256.Sum256([]byte(token.Plaintext))
    token.Hash = hash[:]

    return token, nil
}

// ValidateTokenPlaintext checks that a client-provided token plaintext has the
// expected shape.
func ValidateTokenPlaintext(v *validator.Validator, tokenPlaintext string) {
    v.Check(tokenPlaintext != "", "token", "must be provided")
    v.Check(len(tokenPlaintext) == 26, "token", "must be 26 bytes long")
}

// TokenModel struct wraps a database connection pool wrapper.
type TokenModel struct {
    DB *PoolWrapper
}

// New generates a token, inserts it, and returns it with the plaintext set.
func (m TokenModel) New(userID int64, ttl time.Duration, scope string) (*Token, error) {
    token, err := generateToken(userID, ttl, scope)
    if err != nil {
        return nil, err
    }

    err = m.Insert(token)
    return token, err
}

// Insert inserts a new record in the token table.
func (m TokenModel) Insert(token *Token) error {
    query := `INSERT INTO token (hash, user_id, expiry, scope)
              VALUES ($1, $2, $3, $4)`

    args := []any{token.Hash, token.UserID, token.Expiry, token.Scope}

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    _, err := m.DB.Pool.Exec(ctx, query, args...)
    return err
}

// DeleteAllForUser deletes all tokens with a specific scope for a specific user.
func (m TokenModel) DeleteAllForUser(userID int64, scope string) error {
    query := `DELETE FROM token
              WHERE user_id = $1 AND scope = $2`

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    _, err := m.DB.Pool.Exec(ctx, query, userID, scope)
    return err
}

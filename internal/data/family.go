package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"healthtrack.zzh.net/internal/validator"
)

// Family represents a family unit. Users and tracked members belong to exactly
// one family; it is the boundary every authorization check is made against.
type Family struct {
    ID        int64     `json:"id"`
    CreatedAt time.Time `json:"created_at"`
    Name      string    `json:"name"`
}

// ValidateFamily validates the fields of family using validator v.
func ValidateFamily(v *validator.Validator, family *Family) {
    v.Check(family.Name != "", "family_name", "must be provided")
    v.Check(len(family.Name) <= 200, "family_name", "must not be more than 200 bytes long")
}

// FamilyModel struct wraps a database connection pool wrapper.
type FamilyModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the family table.
func (m FamilyModel) Insert(family *Family) error {
    query := `INSERT INTO family (name)
              VALUES ($1)
              RETURNING id, created_at`

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, family.Name).Scan(&family.ID, &family.CreatedAt)
}

// Get retrieves a family by its ID.
func (m FamilyModel) Get(id int64) (*Family, error) {
    query := `SELECT id, created_at, name
                FROM family
               WHERE id = $1`

    var family Family

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id).Scan(&family.ID, &family.CreatedAt, &family.Name)
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &family, nil
}

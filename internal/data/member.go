package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"healthtrack.zzh.net/internal/validator"
)

// Member represents a tracked person inside a family: the family holds the
// accounts, members hold the health records.
type Member struct {
    ID          int64     `json:"id"`
    CreatedAt   time.Time `json:"created_at"`
    FamilyID    int64     `json:"family_id"`
    Name        string    `json:"name"`
    DateOfBirth time.Time `json:"date_of_birth"`
    Gender      string    `json:"gender"`
    Relation    string    `json:"relation"`
    Version     int       `json:"version"`
}

// ValidateMember validates the fields of member using validator v.
func ValidateMember(v *validator.Validator, member *Member) {
    v.Check(member.Name != "", "name", "must be provided")
    v.Check(len(member.Name) <= 200, "name", "must not be more than 200 bytes long")

    v.Check(!member.DateOfBirth.IsZero(), "date_of_birth", "must be provided")
    v.Check(member.DateOfBirth.Before(time.Now()), "date_of_birth", "must be in the past")

    v.Check(validator.PermittedValue(member.Gender, "female", "male", "other"), "gender", "must be one of female, male or other")

    v.Check(member.Relation != "", "relation", "must be provided")
    v.Check(len(member.Relation) <= 100, "relation", "must not be more than 100 bytes long")
}

// MemberModel struct wraps a database connection pool wrapper.
type MemberModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the member table.
func (m MemberModel) Insert(member *Member) error {
    query := `INSERT INTO member (family_id, name, date_of_birth, gender, relation)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at, version`

    args := []any{member.FamilyID, member.Name, member.DateOfBirth, member.Gender, member.Relation}

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, args...).Scan(&member.ID, &member.CreatedAt, &member.Version)
}

// GetForFamily retrieves a member by ID, scoped to a family. The family
// predicate lives in the query itself so a member of another family is
// indistinguishable from a missing one.
func (m MemberModel) GetForFamily(id, familyID int64) (*Member, error) {
    query := `SELECT id, created_at, family_id, name, date_of_birth, gender, relation, version
                FROM member
               WHERE id = $1 AND family_id = $2`

    var member Member

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id, familyID).Scan(
        &member.ID,
        &member.CreatedAt,
        &member.FamilyID,
        &member.Name,
        &member.DateOfBirth,
        &member.Gender,
        &member.Relation,
        &member.Version,
    )

    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &member, nil
}

// GetAllForFamily returns all members of a family, oldest first.
func (m MemberModel) GetAllForFamily(familyID int64) ([]*Member, error) {
    query := `SELECT id, created_at, family_id, name, date_of_birth, gender, relation, version
                FROM member
               WHERE family_id = $1
               ORDER BY date_of_birth, id`

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, familyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    members := []*Member{}

    for rows.Next() {
        var member Member

        err := rows.Scan(
            &member.ID,
            &member.CreatedAt,
            &member.FamilyID,
            &member.Name,
            &member.DateOfBirth,
            &member.Gender,
            &member.Relation,
            &member.Version,
        )
        if err != nil {
            return nil, err
        }

        members = append(members, &member)
    }
    if err = rows.Err(); err != nil {
        return nil, err
    }

    return members, nil
}

// Update updates a record in the member table, scoped to a family.
func (m MemberModel) Update(member *Member) error {
    query := `UPDATE member
              SET name = $1, date_of_birth = $2, gender = $3, relation = $4, version = version + 1
              WHERE id = $5 AND family_id = $6 AND version = $7
              RETURNING version`

    args := []any{
        member.Name,
        member.DateOfBirth,
        member.Gender,
        member.Relation,
        member.ID,
        member.FamilyID,
        member.Version,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&member.Version)
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return ErrEditConflict
        default:
            return err
        }
    }

    return nil
}

// Delete deletes a member, scoped to a family. Vitals, reports and documents
// for the member go with it via ON DELETE CASCADE.
func (m MemberModel) Delete(id, familyID int64) error {
    query := `DELETE FROM member
              WHERE id = $1 AND family_id = $2`

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    result, err := m.DB.Pool.Exec(ctx, query, id, familyID)
    if err != nil {
        return err
    }

    if result.RowsAffected() == 0 {
        return ErrRecordNotFound
    }

    return nil
}

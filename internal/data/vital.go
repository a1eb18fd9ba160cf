package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"healthtrack.zzh.net/internal/validator"
)

// ErrDuplicateVital reports the double-submit guard: an identical reading for
// the same member was recorded within the debounce window.
var ErrDuplicateVital = errors.New("duplicate vital reading")

// vitalDebounce is how far back an identical (member, type, value, unit) tuple
// blocks a new insert. A debounce against double-submit, not deduplication.
const vitalDebounce = 5 * time.Second

// Vital represents a single recorded reading for a member, e.g. a heart rate
// or a blood pressure measurement. Vitals are immutable once recorded.
type Vital struct {
    ID         int64     `json:"id"`
    CreatedAt  time.Time `json:"created_at"`
    MemberID   int64     `json:"member_id"`
    VitalType  string    `json:"vital_type"`
    Value      float64   `json:"value"`
    Unit       string    `json:"unit"`
    Note       string    `json:"note,omitempty"`
    RecordedAt time.Time `json:"recorded_at"`
}

// ValidateVital validates the fields of vital using validator v.
func ValidateVital(v *validator.Validator, vital *Vital) {
    v.Check(vital.VitalType != "", "vital_type", "must be provided")
    v.Check(len(vital.VitalType) <= 100, "vital_type", "must not be more than 100 bytes long")

    v.Check(vital.Value > 0, "value", "must be greater than 0")

    v.Check(vital.Unit != "", "unit", "must be provided")
    v.Check(len(vital.Unit) <= 50, "unit", "must not be more than 50 bytes long")

    v.Check(len(vital.Note) <= 1000, "note", "must not be more than 1000 bytes long")

    v.Check(!vital.RecordedAt.IsZero(), "recorded_at", "must be provided")
    v.Check(!vital.RecordedAt.After(time.Now().Add(time.Minute)), "recorded_at", "must not be in the future")
}

// VitalModel struct wraps a database connection pool wrapper.
type VitalModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the vital table unless an identical reading
// for the same member exists inside the debounce window. The guard and the
// insert are one statement, so two racing submissions cannot both land.
func (m VitalModel) Insert(vital *Vital) error {
    query := `INSERT INTO vital (member_id, vital_type, value, unit, note, recorded_at)
              SELECT $1, $2, $3, $4, $5, $6
               WHERE NOT EXISTS (
                     SELECT 1
                       FROM vital
                      WHERE member_id = $1
                        AND vital_type = $2
                        AND value = $3
                        AND unit = $4
                        AND recorded_at > $7)
              RETURNING id, created_at`

    args := []any{
        vital.MemberID,
        vital.VitalType,
        vital.Value,
        vital.Unit,
        vital.Note,
        vital.RecordedAt,
        vital.RecordedAt.Add(-vitalDebounce),
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&vital.ID, &vital.CreatedAt)
    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return ErrDuplicateVital
        default:
            return err
        }
    }

    return nil
}

// GetAllForMember returns a page of vitals for a member, scoped to a family
// through the member table.
func (m VitalModel) GetAllForMember(memberID, familyID int64, vitalType string, filter Filter) ([]*Vital, Metadata, error) {
    query := `SELECT count(*) OVER(), v.id, v.created_at, v.member_id, v.vital_type, v.value, v.unit, v.note, v.recorded_at
                FROM vital v
               INNER JOIN member mb ON mb.id = v.member_id
               WHERE v.member_id = $1
                 AND mb.family_id = $2
                 AND ($3 = '' OR v.vital_type = $3)
               ORDER BY v.` + filter.sortColumn() + ` ` + filter.sortDirection() + `, v.id
               LIMIT $4 OFFSET $5`

    args := []any{memberID, familyID, vitalType, filter.limit(), filter.offset()}

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, args...)
    if err != nil {
        return nil, Metadata{}, err
    }
    defer rows.Close()

    totalRecords := 0
    vitals := []*Vital{}

    for rows.Next() {
        var vital Vital

        err := rows.Scan(
            &totalRecords,
            &vital.ID,
            &vital.CreatedAt,
            &vital.MemberID,
            &vital.VitalType,
            &vital.Value,
            &vital.Unit,
            &vital.Note,
            &vital.RecordedAt,
        )
        if err != nil {
            return nil, Metadata{}, err
        }

        vitals = append(vitals, &vital)
    }
    if err = rows.Err(); err != nil {
        return nil, Metadata{}, err
    }

    metadata := calculateMetadata(totalRecords, filter.Page, filter.PageSize)

    return vitals, metadata, nil
}

// Delete deletes a vital, scoped to a family through the member table.
func (m VitalModel) Delete(id, familyID int64) error {
    query := `DELETE FROM vital v
              USING member mb
              WHERE v.id = $1
                AND mb.id = v.member_id
                AND mb.family_id = $2`

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

package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"healthtrack.zzh.net/internal/validator"
)

// Report represents a medical report for a member: lab results, imaging,
// discharge summaries and the like, with an optional uploaded file. FileName
// holds the stored (uuid-derived) name on disk, OriginalFilename what the
// client uploaded it as.
type Report struct {
    ID               int64     `json:"id"`
    CreatedAt        time.Time `json:"created_at"`
    MemberID         int64     `json:"member_id"`
    Title            string    `json:"title"`
    ReportType       string    `json:"report_type"`
    ReportDate       time.Time `json:"report_date"`
    Notes            string    `json:"notes,omitempty"`
    FileName         string    `json:"-"`
    OriginalFilename string    `json:"original_filename,omitempty"`
    Version          int       `json:"version"`
}

// HasFile reports whether the report has an uploaded file attached.
func (r *Report) HasFile() bool {
    return r.FileName != ""
}

// ValidateReport validates the fields of report using validator v.
func ValidateReport(v *validator.Validator, report *Report) {
    v.Check(report.Title != "", "title", "must be provided")
    v.Check(len(report.Title) <= 200, "title", "must not be more than 200 bytes long")

    v.Check(report.ReportType != "", "report_type", "must be provided")
    v.Check(len(report.ReportType) <= 100, "report_type", "must not be more than 100 bytes long")

    v.Check(!report.ReportDate.IsZero(), "report_date", "must be provided")
    v.Check(!report.ReportDate.After(time.Now().Add(24*time.Hour)), "report_date", "must not be in the future")

    v.Check(len(report.Notes) <= 2000, "notes", "must not be more than 2000 bytes long")
}

// ReportModel struct wraps a database connection pool wrapper.
type ReportModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the report table.
func (m ReportModel) Insert(report *Report) error {
    query := `INSERT INTO report (member_id, title, report_type, report_date, notes, file_name, original_filename)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, created_at, version`

    args := []any{
        report.MemberID,
        report.Title,
        report.ReportType,
        report.ReportDate,
        report.Notes,
        report.FileName,
        report.OriginalFilename,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, args...).Scan(&report.ID, &report.CreatedAt, &report.Version)
}

// GetForFamily retrieves a report by ID, scoped to a family through the member
// table.
func (m ReportModel) GetForFamily(id, familyID int64) (*Report, error) {
    query := `SELECT r.id, r.created_at, r.member_id, r.title, r.report_type, r.report_date, r.notes,
                     r.file_name, r.original_filename, r.version
                FROM report r
               INNER JOIN member mb ON mb.id = r.member_id
               WHERE r.id = $1 AND mb.family_id = $2`

    var report Report

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id, familyID).Scan(
        &report.ID,
        &report.CreatedAt,
        &report.MemberID,
        &report.Title,
        &report.ReportType,
        &report.ReportDate,
        &report.Notes,
        &report.FileName,
        &report.OriginalFilename,
        &report.Version,
    )

    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &report, nil
}

// GetAllForMember returns a page of reports for a member, scoped to a family.
func (m ReportModel) GetAllForMember(memberID, familyID int64, filter Filter) ([]*Report, Metadata, error) {
    query := `SELECT count(*) OVER(), r.id, r.created_at, r.member_id, r.title, r.report_type, r.report_date,
                     r.notes, r.file_name, r.original_filename, r.version
                FROM report r
               INNER JOIN member mb ON mb.id = r.member_id
               WHERE r.member_id = $1 AND mb.family_id = $2
               ORDER BY r.` + filter.sortColumn() + ` ` + filter.sortDirection() + `, r.id
               LIMIT $3 OFFSET $4`

    args := []any{memberID, familyID, filter.limit(), filter.offset()}

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, args...)
    if err != nil {
        return nil, Metadata{}, err
    }
    defer rows.Close()

    totalRecords := 0
    reports := []*Report{}

    for rows.Next() {
        var report Report

        err := rows.Scan(
            &totalRecords,
            &report.ID,
            &report.CreatedAt,
            &report.MemberID,
            &report.Title,
            &report.ReportType,
            &report.ReportDate,
            &report.Notes,
            &report.FileName,
            &report.OriginalFilename,
            &report.Version,
        )
        if err != nil {
            return nil, Metadata{}, err
        }

        reports = append(reports, &report)
    }
    if err = rows.Err(); err != nil {
        return nil, Metadata{}, err
    }

    metadata := calculateMetadata(totalRecords, filter.Page, filter.PageSize)

    return reports, metadata, nil
}

// FileNamesForMember returns the stored file names of every report for a
// member, scoped to a family. Used to clean the filestore up when a member is
// deleted and the rows go away via cascade.
func (m ReportModel) FileNamesForMember(memberID, familyID int64) ([]string, error) {
    query := `SELECT r.file_name
                FROM report r
               INNER JOIN member mb ON mb.id = r.member_id
               WHERE r.member_id = $1
                 AND mb.family_id = $2
                 AND r.file_name <> ''`

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, memberID, familyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var names []string

    for rows.Next() {
        var name string

        err := rows.Scan(&name)
        if err != nil {
            return nil, err
        }

        names = append(names, name)
    }
    if err = rows.Err(); err != nil {
        return nil, err
    }

    return names, nil
}

// Update updates a record in the report table. The family predicate rides on
// the member join; the version predicate gives optimistic locking.
func (m ReportModel) Update(report *Report, familyID int64) error {
    query := `UPDATE report r
              SET title = $1, report_type = $2, report_date = $3, notes = $4,
                  file_name = $5, original_filename = $6, version = version + 1
              FROM member mb
              WHERE r.id = $7
                AND mb.id = r.member_id
                AND mb.family_id = $8
                AND r.version = $9
              RETURNING r.version`

    args := []any{
        report.Title,
        report.ReportType,
        report.ReportDate,
        report.Notes,
        report.FileName,
        report.OriginalFilename,
        report.ID,
        familyID,
        report.Version,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&report.Version)
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

// Delete deletes a report, scoped to a family through the member table.
func (m ReportModel) Delete(id, familyID int64) error {
    query := `DELETE FROM report r
              USING member mb
              WHERE r.id = $1
                AND mb.id = r.member_id
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

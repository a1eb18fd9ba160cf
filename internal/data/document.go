package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"healthtrack.zzh.net/internal/validator"
)

// Document represents an uploaded file attached to a member: insurance cards,
// prescriptions, vaccination certificates. Unlike reports a document always
// has a file.
type Document struct {
    ID               int64     `json:"id"`
    CreatedAt        time.Time `json:"created_at"`
    MemberID         int64     `json:"member_id"`
    Title            string    `json:"title"`
    Category         string    `json:"category"`
    FileName         string    `json:"-"`
    OriginalFilename string    `json:"original_filename"`
    Version          int       `json:"version"`
}

// ValidateDocument validates the fields of document using validator v.
func ValidateDocument(v *validator.Validator, document *Document) {
    v.Check(document.Title != "", "title", "must be provided")
    v.Check(len(document.Title) <= 200, "title", "must not be more than 200 bytes long")

    v.Check(document.Category != "", "category", "must be provided")
    v.Check(len(document.Category) <= 100, "category", "must not be more than 100 bytes long")

    v.Check(document.FileName != "", "file", "must be provided")
}

// DocumentModel struct wraps a database connection pool wrapper.
type DocumentModel struct {
    DB *PoolWrapper
}

// Insert inserts a new record in the document table.
func (m DocumentModel) Insert(document *Document) error {
    query := `INSERT INTO document (member_id, title, category, file_name, original_filename)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at, version`

    args := []any{
        document.MemberID,
        document.Title,
        document.Category,
        document.FileName,
        document.OriginalFilename,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    return m.DB.Pool.QueryRow(ctx, query, args...).Scan(&document.ID, &document.CreatedAt, &document.Version)
}

// GetForFamily retrieves a document by ID, scoped to a family through the
// member table.
func (m DocumentModel) GetForFamily(id, familyID int64) (*Document, error) {
    query := `SELECT d.id, d.created_at, d.member_id, d.title, d.category, d.file_name, d.original_filename, d.version
                FROM document d
               INNER JOIN member mb ON mb.id = d.member_id
               WHERE d.id = $1 AND mb.family_id = $2`

    var document Document

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, id, familyID).Scan(
        &document.ID,
        &document.CreatedAt,
        &document.MemberID,
        &document.Title,
        &document.Category,
        &document.FileName,
        &document.OriginalFilename,
        &document.Version,
    )

    if err != nil {
        switch {
        case errors.Is(err, pgx.ErrNoRows):
            return nil, ErrRecordNotFound
        default:
            return nil, err
        }
    }

    return &document, nil
}

// GetAllForMember returns a page of documents for a member, scoped to a family.
func (m DocumentModel) GetAllForMember(memberID, familyID int64, category string, filter Filter) ([]*Document, Metadata, error) {
    query := `SELECT count(*) OVER(), d.id, d.created_at, d.member_id, d.title, d.category,
                     d.file_name, d.original_filename, d.version
                FROM document d
               INNER JOIN member mb ON mb.id = d.member_id
               WHERE d.member_id = $1
                 AND mb.family_id = $2
                 AND ($3 = '' OR d.category = $3)
               ORDER BY d.` + filter.sortColumn() + ` ` + filter.sortDirection() + `, d.id
               LIMIT $4 OFFSET $5`

    args := []any{memberID, familyID, category, filter.limit(), filter.offset()}

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    rows, err := m.DB.Pool.Query(ctx, query, args...)
    if err != nil {
        return nil, Metadata{}, err
    }
    defer rows.Close()

    totalRecords := 0
    documents := []*Document{}

    for rows.Next() {
        var document Document

        err := rows.Scan(
            &totalRecords,
            &document.ID,
            &document.CreatedAt,
            &document.MemberID,
            &document.Title,
            &document.Category,
            &document.FileName,
            &document.OriginalFilename,
            &document.Version,
        )
        if err != nil {
            return nil, Metadata{}, err
        }

        documents = append(documents, &document)
    }
    if err = rows.Err(); err != nil {
        return nil, Metadata{}, err
    }

    metadata := calculateMetadata(totalRecords, filter.Page, filter.PageSize)

    return documents, metadata, nil
}

// FileNamesForMember returns the stored file names of every document for a
// member, scoped to a family.
func (m DocumentModel) FileNamesForMember(memberID, familyID int64) ([]string, error) {
    query := `SELECT d.file_name
                FROM document d
               INNER JOIN member mb ON mb.id = d.member_id
               WHERE d.member_id = $1 AND mb.family_id = $2`

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

// Update updates a record in the document table with optimistic locking.
func (m DocumentModel) Update(document *Document, familyID int64) error {
    query := `UPDATE document d
              SET title = $1, category = $2, file_name = $3, original_filename = $4, version = version + 1
              FROM member mb
              WHERE d.id = $5
                AND mb.id = d.member_id
                AND mb.family_id = $6
                AND d.version = $7
              RETURNING d.version`

    args := []any{
        document.Title,
        document.Category,
        document.FileName,
        document.OriginalFilename,
        document.ID,
        familyID,
        document.Version,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    err := m.DB.Pool.QueryRow(ctx, query, args...).Scan(&document.Version)
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

// Delete deletes a document, scoped to a family through the member table.
func (m DocumentModel) Delete(id, familyID int64) error {
    query := `DELETE FROM document d
              USING member mb
              WHERE d.id = $1
                AND mb.id = d.member_id
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

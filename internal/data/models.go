package data

import (
	"errors"
)

var (
    ErrMsgViolateUniqueConstraint = "duplicate key value violates unique constraint"

    ErrRecordNotFound = errors.New("record not found")
    ErrEditConflict   = errors.New("edit conflict")
)

// Models puts models together in one struct.
type Models struct {
    Family     FamilyModel
    User       UserModel
    Token      TokenModel
    Permission PermissionModel
    Member     MemberModel
    Vital      VitalModel
    Report     ReportModel
    Document   DocumentModel
}

// NewModels returns a Models struct containing the initialized models.
func NewModels(pw *PoolWrapper) Models {
    return Models{
        Family:     FamilyModel{DB: pw},
        User:       UserModel{DB: pw},
        Token:      TokenModel{DB: pw},
        Permission: PermissionModel{DB: pw},
        Member:     MemberModel{DB: pw},
        Vital:      VitalModel{DB: pw},
        Report:     ReportModel{DB: pw},
        Document:   DocumentModel{DB: pw},
    }
}

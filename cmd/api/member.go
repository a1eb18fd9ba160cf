package main

import (
	"errors"
	"net/http"

	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/validator"
)

func (app *application) createMemberHandler(w http.ResponseWriter, r *http.Request) {
    var input struct {
        Name        string `json:"name"`
        DateOfBirth string `json:"date_of_birth"`
        Gender      string `json:"gender"`
        Relation    string `json:"relation"`
    }

    err := app.readJSON(w, r, &input)
    if err != nil {
        app.badRequestResponse(w, r, err)
        return
    }

    user := app.contextGetUser(r)

    v := validator.New()

    member := &data.Member{
        FamilyID:    user.FamilyID,
        Name:        input.Name,
        DateOfBirth: app.readDate(input.DateOfBirth, "date_of_birth", v),
        Gender:      input.Gender,
        Relation:    input.Relation,
    }

    if data.ValidateMember(v, member); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    err = app.models.Member.Insert(member)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusCreated, envelope{"member": member}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) listMembersHandler(w http.ResponseWriter, r *http.Request) {
    user := app.contextGetUser(r)

    members, err := app.models.Member.GetAllForFamily(user.FamilyID)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"members": members}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) showMemberHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    member, err := app.models.Member.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"member": member}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) updateMemberHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    member, err := app.models.Member.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    // Pointer fields distinguish "not provided" from a provided zero value.
    var input struct {
        Name        *string `json:"name"`
        DateOfBirth *string `json:"date_of_birth"`
        Gender      *string `json:"gender"`
        Relation    *string `json:"relation"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        app.badRequestResponse(w, r, err)
        return
    }

    v := validator.New()

    if input.Name != nil {
        member.Name = *input.Name
    }
    if input.DateOfBirth != nil {
        member.DateOfBirth = app.readDate(*input.DateOfBirth, "date_of_birth", v)
    }
    if input.Gender != nil {
        member.Gender = *input.Gender
    }
    if input.Relation != nil {
        member.Relation = *input.Relation
    }

    if data.ValidateMember(v, member); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    err = app.models.Member.Update(member)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrEditConflict):
            app.editConflictResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"member": member}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) deleteMemberHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    // Collect stored file names before the rows disappear via cascade, so the
    // files can be cleaned up after a successful delete.
    reportFiles, err := app.models.Report.FileNamesForMember(id, user.FamilyID)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    documentFiles, err := app.models.Document.FileNamesForMember(id, user.FamilyID)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.models.Member.Delete(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    app.background(func() {
        for _, name := range append(reportFiles, documentFiles...) {
            err := app.files.Remove(name)
            if err != nil {
                app.logger.Error(err.Error(), "file", name)
            }
        }
    })

    err = app.writeJSON(w, http.StatusOK, envelope{"message": "member successfully deleted"}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

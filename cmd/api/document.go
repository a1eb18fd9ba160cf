package main

import (
	"errors"
	"net/http"

	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/filestore"
	"healthtrack.zzh.net/internal/validator"
)

func (app *application) createDocumentHandler(w http.ResponseWriter, r *http.Request) {
    memberID, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    member, err := app.models.Member.GetForFamily(memberID, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.parseUploadForm(w, r)
    if err != nil {
        app.badRequestResponse(w, r, err)
        return
    }

    v := validator.New()

    document := &data.Document{
        MemberID: member.ID,
        Title:    r.FormValue("title"),
        Category: r.FormValue("category"),
    }

    // Unlike reports, a document is nothing without its file, so the upload is
    // stored first and participates in validation.
    document.FileName, document.OriginalFilename, err = app.saveUploadedFile(r)
    if err != nil {
        switch {
        case errors.Is(err, filestore.ErrUnsupportedExt):
            v.AddError("file", "must be a PDF or image file")
            app.failedValidationResponse(w, r, v.Errors)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if data.ValidateDocument(v, document); !v.Valid() {
        if document.FileName != "" {
            if removeErr := app.files.Remove(document.FileName); removeErr != nil {
                app.logError(r, removeErr)
            }
        }
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    err = app.models.Document.Insert(document)
    if err != nil {
        if removeErr := app.files.Remove(document.FileName); removeErr != nil {
            app.logError(r, removeErr)
        }
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusCreated, envelope{"document": document}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
    memberID, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    _, err = app.models.Member.GetForFamily(memberID, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    var input struct {
        Category string
        Filter   data.Filter
    }

    v := validator.New()

    qs := r.URL.Query()

    input.Category = app.readString(qs, "category", "")
    input.Filter.Page = app.readInt(qs, "page", 1, v)
    input.Filter.PageSize = app.readInt(qs, "page_size", 20, v)
    input.Filter.Sort = app.readString(qs, "sort", "-created_at")
    input.Filter.SortSafeList = []string{"created_at", "title", "category", "-created_at", "-title", "-category"}

    if data.ValidateFilter(v, input.Filter); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    documents, metadata, err := app.models.Document.GetAllForMember(memberID, user.FamilyID, input.Category, input.Filter)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"documents": documents, "metadata": metadata}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) showDocumentHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    document, err := app.models.Document.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"document": document}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) updateDocumentHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    document, err := app.models.Document.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.parseUploadForm(w, r)
    if err != nil {
        app.badRequestResponse(w, r, err)
        return
    }

    v := validator.New()

    formValues := r.MultipartForm.Value
    if values, ok := formValues["title"]; ok && len(values) > 0 {
        document.Title = values[0]
    }
    if values, ok := formValues["category"]; ok && len(values) > 0 {
        document.Category = values[0]
    }

    oldFileName := document.FileName

    newFileName, newOriginalName, err := app.saveUploadedFile(r)
    if err != nil {
        switch {
        case errors.Is(err, filestore.ErrUnsupportedExt):
            v.AddError("file", "must be a PDF or image file")
            app.failedValidationResponse(w, r, v.Errors)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if newFileName != "" {
        document.FileName = newFileName
        document.OriginalFilename = newOriginalName
    }

    if data.ValidateDocument(v, document); !v.Valid() {
        if newFileName != "" {
            if removeErr := app.files.Remove(newFileName); removeErr != nil {
                app.logError(r, removeErr)
            }
        }
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    // DB row first, then the old file; a failed update removes the new file
    // instead.
    err = app.models.Document.Update(document, user.FamilyID)
    if err != nil {
        if newFileName != "" {
            if removeErr := app.files.Remove(newFileName); removeErr != nil {
                app.logError(r, removeErr)
            }
        }

        switch {
        case errors.Is(err, data.ErrEditConflict):
            app.editConflictResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if newFileName != "" && oldFileName != "" && oldFileName != newFileName {
        if removeErr := app.files.Remove(oldFileName); removeErr != nil {
            app.logError(r, removeErr)
        }
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"document": document}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) deleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    document, err := app.models.Document.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.models.Document.Delete(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if removeErr := app.files.Remove(document.FileName); removeErr != nil {
        app.logError(r, removeErr)
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"message": "document successfully deleted"}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) downloadDocumentFileHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    document, err := app.models.Document.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    app.serveStoredFile(w, r, document.FileName, document.OriginalFilename)
}

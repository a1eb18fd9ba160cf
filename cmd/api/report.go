package main

import (
	"errors"
	"fmt"
	"net/http"

	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/filestore"
	"healthtrack.zzh.net/internal/validator"
)

// parseUploadForm parses a multipart form request, bounding the body at the
// configured upload size.
func (app *application) parseUploadForm(w http.ResponseWriter, r *http.Request) error {
    r.Body = http.MaxBytesReader(w, r.Body, app.config.UploadMaxBytes)

    err := r.ParseMultipartForm(1 << 20)
    if err != nil {
        var maxBytesError *http.MaxBytesError
        if errors.As(err, &maxBytesError) {
            return fmt.Errorf("upload must not be larger than %d bytes", maxBytesError.Limit)
        }
        return errors.New("request must be a valid multipart form")
    }

    return nil
}

// saveUploadedFile stores the "file" form part, if present, and returns the
// stored name and the original filename. Empty names mean no file part was
// included.
func (app *application) saveUploadedFile(r *http.Request) (storedName, originalName string, err error) {
    file, header, err := r.FormFile("file")
    if err != nil {
        if errors.Is(err, http.ErrMissingFile) {
            return "", "", nil
        }
        return "", "", err
    }
    defer file.Close()

    storedName, err = app.files.Save(file, header.Filename)
    if err != nil {
        return "", "", err
    }

    return storedName, header.Filename, nil
}

func (app *application) createReportHandler(w http.ResponseWriter, r *http.Request) {
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

    report := &data.Report{
        MemberID:   member.ID,
        Title:      r.FormValue("title"),
        ReportType: r.FormValue("report_type"),
        ReportDate: app.readDate(r.FormValue("report_date"), "report_date", v),
        Notes:      r.FormValue("notes"),
    }

    if data.ValidateReport(v, report); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    // Store the file only after the metadata has passed validation, so a bad
    // request never leaves a file behind.
    report.FileName, report.OriginalFilename, err = app.saveUploadedFile(r)
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

    err = app.models.Report.Insert(report)
    if err != nil {
        // The insert failed after the file was written; remove it so nothing
        // is orphaned on disk.
        if report.HasFile() {
            if removeErr := app.files.Remove(report.FileName); removeErr != nil {
                app.logError(r, removeErr)
            }
        }
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusCreated, envelope{"report": report}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) listReportsHandler(w http.ResponseWriter, r *http.Request) {
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

    var filter data.Filter

    v := validator.New()

    qs := r.URL.Query()

    filter.Page = app.readInt(qs, "page", 1, v)
    filter.PageSize = app.readInt(qs, "page_size", 20, v)
    filter.Sort = app.readString(qs, "sort", "-report_date")
    filter.SortSafeList = []string{"report_date", "title", "report_type", "-report_date", "-title", "-report_type"}

    if data.ValidateFilter(v, filter); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    reports, metadata, err := app.models.Report.GetAllForMember(memberID, user.FamilyID, filter)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"reports": reports, "metadata": metadata}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) showReportHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    report, err := app.models.Report.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"report": report}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) updateReportHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    report, err := app.models.Report.GetForFamily(id, user.FamilyID)
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

    // Only form fields that were actually sent overwrite the current values.
    formValues := r.MultipartForm.Value
    if values, ok := formValues["title"]; ok && len(values) > 0 {
        report.Title = values[0]
    }
    if values, ok := formValues["report_type"]; ok && len(values) > 0 {
        report.ReportType = values[0]
    }
    if values, ok := formValues["report_date"]; ok && len(values) > 0 {
        report.ReportDate = app.readDate(values[0], "report_date", v)
    }
    if values, ok := formValues["notes"]; ok && len(values) > 0 {
        report.Notes = values[0]
    }

    if data.ValidateReport(v, report); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    oldFileName := report.FileName

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
        report.FileName = newFileName
        report.OriginalFilename = newOriginalName
    }

    // Update the database row first. Only after it succeeds is the replaced
    // file deleted; if the update fails, the freshly written file is removed
    // instead so neither path leaves an orphan.
    err = app.models.Report.Update(report, user.FamilyID)
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

    err = app.writeJSON(w, http.StatusOK, envelope{"report": report}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    report, err := app.models.Report.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.models.Report.Delete(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if report.HasFile() {
        if removeErr := app.files.Remove(report.FileName); removeErr != nil {
            app.logError(r, removeErr)
        }
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"message": "report successfully deleted"}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) downloadReportFileHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    report, err := app.models.Report.GetForFamily(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    if !report.HasFile() {
        app.notFoundResponse(w, r)
        return
    }

    app.serveStoredFile(w, r, report.FileName, report.OriginalFilename)
}

// serveStoredFile streams a stored file to the client under its original
// filename.
func (app *application) serveStoredFile(w http.ResponseWriter, r *http.Request, storedName, originalName string) {
    f, err := app.files.Open(storedName)
    if err != nil {
        switch {
        case errors.Is(err, filestore.ErrFileNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }
    defer f.Close()

    info, err := f.Stat()
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", originalName))

    http.ServeContent(w, r, originalName, info.ModTime(), f)
}

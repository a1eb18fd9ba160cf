package main

import (
	"errors"
	"net/http"
	"time"

	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/validator"
)

func (app *application) createVitalHandler(w http.ResponseWriter, r *http.Request) {
    memberID, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    // Confirm the member belongs to the acting user's family before touching
    // any vitals.
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

    var input struct {
        VitalType  string  `json:"vital_type"`
        Value      float64 `json:"value"`
        Unit       string  `json:"unit"`
        Note       string  `json:"note"`
        RecordedAt string  `json:"recorded_at"`
    }

    err = app.readJSON(w, r, &input)
    if err != nil {
        app.badRequestResponse(w, r, err)
        return
    }

    vital := &data.Vital{
        MemberID:  member.ID,
        VitalType: input.VitalType,
        Value:     input.Value,
        Unit:      input.Unit,
        Note:      input.Note,
    }

    v := validator.New()

    // A reading timestamp is optional on input and defaults to now.
    if input.RecordedAt == "" {
        vital.RecordedAt = time.Now()
    } else {
        t, err := time.Parse(time.RFC3339, input.RecordedAt)
        if err != nil {
            v.AddError("recorded_at", "must be a valid RFC 3339 timestamp")
        }
        vital.RecordedAt = t
    }

    if data.ValidateVital(v, vital); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    err = app.models.Vital.Insert(vital)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrDuplicateVital):
            app.duplicateVitalResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusCreated, envelope{"vital": vital}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) listVitalsHandler(w http.ResponseWriter, r *http.Request) {
    memberID, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    // A member outside the acting user's family reads as missing, not as an
    // empty list.
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
        VitalType string
        Filter    data.Filter
    }

    v := validator.New()

    qs := r.URL.Query()

    input.VitalType = app.readString(qs, "vital_type", "")
    input.Filter.Page = app.readInt(qs, "page", 1, v)
    input.Filter.PageSize = app.readInt(qs, "page_size", 20, v)
    input.Filter.Sort = app.readString(qs, "sort", "-recorded_at")
    input.Filter.SortSafeList = []string{"recorded_at", "vital_type", "value", "-recorded_at", "-vital_type", "-value"}

    if data.ValidateFilter(v, input.Filter); !v.Valid() {
        app.failedValidationResponse(w, r, v.Errors)
        return
    }

    vitals, metadata, err := app.models.Vital.GetAllForMember(memberID, user.FamilyID, input.VitalType, input.Filter)
    if err != nil {
        app.serverErrorResponse(w, r, err)
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"vitals": vitals, "metadata": metadata}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

func (app *application) deleteVitalHandler(w http.ResponseWriter, r *http.Request) {
    id, err := app.readIDParam(r)
    if err != nil {
        app.notFoundResponse(w, r)
        return
    }

    user := app.contextGetUser(r)

    err = app.models.Vital.Delete(id, user.FamilyID)
    if err != nil {
        switch {
        case errors.Is(err, data.ErrRecordNotFound):
            app.notFoundResponse(w, r)
        default:
            app.serverErrorResponse(w, r, err)
        }
        return
    }

    err = app.writeJSON(w, http.StatusOK, envelope{"message": "vital successfully deleted"}, nil)
    if err != nil {
        app.serverErrorResponse(w, r, err)
    }
}

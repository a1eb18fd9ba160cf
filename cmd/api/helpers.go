package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"healthtrack.zzh.net/internal/validator"
)

// envelope wraps JSON responses under a named key.
type envelope map[string]any

// readIDParam retrieves the "id" URL parameter from the current request
// context, then converts it to an integer and returns it.
func (app *application) readIDParam(r *http.Request) (int64, error) {
    params := httprouter.ParamsFromContext(r.Context())

    id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
    if err != nil || id < 1 {
        return 0, errors.New("invalid id parameter")
    }

    return id, nil
}

// writeJSON marshals data to JSON and writes it to the response along with any
// additional headers.
func (app *application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
    js, err := json.Marshal(data)
    if err != nil {
        return err
    }

    js = append(js, '\n')

    for key, value := range headers {
        w.Header()[key] = value
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    w.Write(js)

    return nil
}

// readJSON decodes the request body into the target destination, returning a
// descriptive error for malformed input.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
    maxBytes := 1_048_576
    r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()

    err := dec.Decode(dst)
    if err != nil {
        var syntaxError *json.SyntaxError
        var unmarshalTypeError *json.UnmarshalTypeError
        var invalidUnmarshalError *json.InvalidUnmarshalError
        var maxBytesError *http.MaxBytesError

        switch {
        case errors.As(err, &syntaxError):
            return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

        case errors.Is(err, io.ErrUnexpectedEOF):
            return errors.New("body contains badly-formed JSON")

        case errors.As(err, &unmarshalTypeError):
            if unmarshalTypeError.Field != "" {
                return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
            }
            return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

        case errors.Is(err, io.EOF):
            return errors.New("body must not be empty")

        case strings.HasPrefix(err.Error(), "json: unknown field "):
            fieldName := err.Error()[len("json: unknown field "):]
            return fmt.Errorf("body contains unknown key %s", fieldName)

        case errors.As(err, &maxBytesError):
            return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

        case errors.As(err, &invalidUnmarshalError):
            panic(err)

        default:
            return err
        }
    }

    // Call Decode() again to make sure the request body only contained a
    // single JSON value.
    err = dec.Decode(&struct{}{})
    if !errors.Is(err, io.EOF) {
        return errors.New("body must only contain a single JSON value")
    }

    return nil
}

// readString returns a string value from the query string, or the provided
// default value if no matching key could be found.
func (app *application) readString(qs map[string][]string, key string, defaultValue string) string {
    values, ok := qs[key]
    if !ok || len(values) == 0 || values[0] == "" {
        return defaultValue
    }

    return values[0]
}

// readInt returns an integer value from the query string, or the provided
// default value. A non-integer value is recorded as a validation error.
func (app *application) readInt(qs map[string][]string, key string, defaultValue int, v *validator.Validator) int {
    s := app.readString(qs, key, "")
    if s == "" {
        return defaultValue
    }

    i, err := strconv.Atoi(s)
    if err != nil {
        v.AddError(key, "must be an integer value")
        return defaultValue
    }

    return i
}

// readDate returns a date value (YYYY-MM-DD) from a form field, recording a
// validation error for an unparseable value.
func (app *application) readDate(value, key string, v *validator.Validator) time.Time {
    if value == "" {
        return time.Time{}
    }

    t, err := time.Parse("2006-01-02", value)
    if err != nil {
        v.AddError(key, "must be a valid date in YYYY-MM-DD format")
        return time.Time{}
    }

    return t
}

// background launches a function in a background goroutine tracked by the
// application WaitGroup, recovering any panic so it cannot bring the process
// down.
func (app *application) background(fn func()) {
    app.wg.Add(1)

    go func() {
        defer app.wg.Done()

        defer func() {
            if err := recover(); err != nil {
                app.logger.Error(fmt.Sprintf("%v", err))
            }
        }()

        fn()
    }()
}

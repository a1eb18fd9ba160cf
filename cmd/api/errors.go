package main

import (
	"fmt"
	"net/http"
	"strconv"

	"healthtrack.zzh.net/internal/ratelimit"
)

// logError() is a generic helper for logging an error message along with
// the current request method and URL as attributes in the log entry.
func (app *application) logError(r *http.Request, err error) {
    var (
        method = r.Method
        uri    = r.URL.RequestURI()
    )

    app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// errorResponse() is a generic helper for sending JSON-formatted error messages to the client
// with a given status code. Note that we're using the any type for the message parameter, rather
// than just a string type, as this gives us more flexibility over the values that we can include
// in the response.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
    data := envelope{"error": message}

    err := app.writeJSON(w, status, data, nil)
    if err != nil {
        app.logError(r, err)
        w.WriteHeader(http.StatusInternalServerError)
    }
}

// serverErrorResponse() will be used when our application encounters an unexpected problem at
// runtime. It logs the detailed error messages, then uses the errorResponse() helper to send a
// 500 Internal Server Error status code and JSON response (containing a generic error message)
// to the client.
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
    app.logError(r, err)

    message := "the server encountered a problem and could not process your request"
    app.errorResponse(w, r, http.StatusInternalServerError, message)
}

// notFoundResponse() will be used to send a 404 Not Found status code and JSON response to the
// client.
func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
    message := "the requested resource could not be found"
    app.errorResponse(w, r, http.StatusNotFound, message)
}

// methodNotAllowedResponse() will be used to send a 405 Method Not Allowed status code and JSON
// response to the client.
func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
    message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
    app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
    app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
    app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
    message := "unable to update the record due to an edit conflict, please try again"
    app.errorResponse(w, r, http.StatusConflict, message)
}

// rateLimitExceededResponse translates a denied admission decision into a 429.
// The body shape is flat rather than the usual envelope so clients get the
// retry hint as a top-level field, and the standard Retry-After header is set
// to the same value.
func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, policy ratelimit.Policy, decision ratelimit.Decision) {
    body := map[string]any{
        "error":      "Rate limit exceeded",
        "message":    policy.Message,
        "retryAfter": decision.RetryAfter,
    }

    headers := http.Header{}
    headers.Set("Retry-After", strconv.Itoa(decision.RetryAfter))

    err := app.writeJSON(w, http.StatusTooManyRequests, body, headers)
    if err != nil {
        app.logError(r, err)
        w.WriteHeader(http.StatusInternalServerError)
    }
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
    message := "invalid authentication credentials"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("WWW-Authenticate", "Bearer")

    message := "invalid or missing authentication token"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
    message := "you must be authenticated to access this resource"
    app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) inactiveAccountResponse(w http.ResponseWriter, r *http.Request) {
    message := "your user account must be activated to access this resource"
    app.errorResponse(w, r, http.StatusForbidden, message)
}

func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
    message := "your user account doesn't have the necessary permissions to access this resource"
    app.errorResponse(w, r, http.StatusForbidden, message)
}

func (app *application) duplicateVitalResponse(w http.ResponseWriter, r *http.Request) {
    message := "an identical reading was recorded moments ago, please wait before retrying"
    app.errorResponse(w, r, http.StatusConflict, message)
}

package main

import (
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomasen/realip"
	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/ratelimit"
	"healthtrack.zzh.net/internal/validator"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        // Create a deferred function which will always be run in the event of a panic
        // as Go unwinds the stack.
        defer func() {
            if err := recover(); err != nil {
                // Setting "Connection: close" makes Go's HTTP server close the
                // current connection after the response has been sent.
                w.Header().Set("Connection", "close")
                app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
            }
        }()

        next.ServeHTTP(w, r)
    })
}

// rateLimit guards next with the given per-policy store. The identifier is the
// client's real IP; when realip cannot resolve one the store falls back to a
// shared global counter. A denial is translated into a 429 with the policy
// message and a retry hint.
func (app *application) rateLimit(store *ratelimit.Store, next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if app.limiters.enabled {
            ip := realip.FromRequest(r)

            decision := store.Check(ip, time.Now())
            if !decision.Allowed {
                app.rateLimitExceededResponse(w, r, store.Policy(), decision)
                return
            }
        }

        next.ServeHTTP(w, r)
    })
}

// rateLimitFunc is the http.HandlerFunc flavor of rateLimit, for wrapping
// individual routes with the auth or upload policy.
func (app *application) rateLimitFunc(store *ratelimit.Store, next http.HandlerFunc) http.HandlerFunc {
    return app.rateLimit(store, next).ServeHTTP
}

func (app *application) authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        // The response may vary based on the value of the Authorization header.
        w.Header().Add("Vary", "Authorization")

        authorizationHeader := r.Header.Get("Authorization")

        // No Authorization header: carry on as the anonymous user.
        if authorizationHeader == "" {
            r = app.contextSetUser(r, data.AnonymousUser)
            next.ServeHTTP(w, r)
            return
        }

        headerParts := strings.Split(authorizationHeader, " ")
        if len(headerParts) != 2 || headerParts[0] != "Bearer" {
            app.invalidAuthenticationTokenResponse(w, r)
            return
        }

        token := headerParts[1]

        v := validator.New()

        if data.ValidateTokenPlaintext(v, token); !v.Valid() {
            app.invalidAuthenticationTokenResponse(w, r)
            return
        }

        user, err := app.models.User.GetForToken(data.ScopeAuthentication, token)
        if err != nil {
            switch {
            case errors.Is(err, data.ErrRecordNotFound):
                app.invalidAuthenticationTokenResponse(w, r)
            default:
                app.serverErrorResponse(w, r, err)
            }
            return
        }

        r = app.contextSetUser(r, user)

        next.ServeHTTP(w, r)
    })
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        user := app.contextGetUser(r)

        if user.IsAnonymous() {
            app.authenticationRequiredResponse(w, r)
            return
        }

        next.ServeHTTP(w, r)
    })
}

func (app *application) requireActivatedUser(next http.HandlerFunc) http.HandlerFunc {
    // Rather than returning this http.HandlerFunc we assign it to the variable fn.
    fn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        user := app.contextGetUser(r)

        if !user.Activated {
            app.inactiveAccountResponse(w, r)
            return
        }

        next.ServeHTTP(w, r)
    })

    return app.requireAuthenticatedUser(fn)
}

func (app *application) requirePermission(code string, next http.HandlerFunc) http.HandlerFunc {
    fn := func(w http.ResponseWriter, r *http.Request) {
        user := app.contextGetUser(r)

        permissions, err := app.models.Permission.GetAllForUser(user.ID)
        if err != nil {
            app.serverErrorResponse(w, r, err)
            return
        }

        if !permissions.Include(code) {
            app.notPermittedResponse(w, r)
            return
        }

        next.ServeHTTP(w, r)
    }

    return app.requireActivatedUser(fn)
}

func (app *application) enableCORS(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Add("Vary", "Origin")
        w.Header().Add("Vary", "Access-Control-Request-Method")

        origin := r.Header.Get("Origin")

        if origin != "" {
            for _, o := range app.config.CORSTrustedOrigins {
                if origin == o {
                    w.Header().Set("Access-Control-Allow-Origin", origin)

                    // A preflight request has the OPTIONS method and an
                    // Access-Control-Request-Method header.
                    if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
                        w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
                        w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

                        w.WriteHeader(http.StatusOK)
                        return
                    }

                    break
                }
            }
        }

        next.ServeHTTP(w, r)
    })
}

// The metricsResponseWriter type wraps an existing http.ResponseWriter and also
// contains a field for recording the response status code, and a boolean flag
// to indicate whether the response headers have already been written.
type metricsResponseWriter struct {
    wrapped       http.ResponseWriter
    statusCode    int
    headerWritten bool
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
    return &metricsResponseWriter{
        wrapped:    w,
        statusCode: http.StatusOK,
    }
}

// Header is a simple 'pass through' to the Header() method of the wrapped
// http.ResponseWriter.
func (mrw *metricsResponseWriter) Header() http.Header {
    return mrw.wrapped.Header()
}

// WriteHeader does a 'pass through' to the WriteHeader() method of the wrapped
// http.ResponseWriter, recording the response status code if it hasn't been
// recorded yet.
func (mrw *metricsResponseWriter) WriteHeader(statusCode int) {
    mrw.wrapped.WriteHeader(statusCode)

    if !mrw.headerWritten {
        mrw.statusCode = statusCode
        mrw.headerWritten = true
    }
}

// Write does a 'pass through' to the Write() method of the wrapped http.ResponseWriter.
// Calling this will automatically write any response headers, so we set the
// headerWritten field to true.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
    mrw.headerWritten = true
    return mrw.wrapped.Write(b)
}

// Unwrap returns the existing wrapped http.ResponseWriter.
func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
    return mrw.wrapped
}

func (app *application) metrics(next http.Handler) http.Handler {
    var (
        totalRequestsReceived           = expvar.NewInt("total_requests_received")
        totalResponsesSent              = expvar.NewInt("total_responses_sent")
        totalProcessingTimeMicroseconds = expvar.NewInt("total_processing_time_us")
        totalResponsesSentByStatus      = expvar.NewMap("total_responses_sent_by_status")
    )

    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        totalRequestsReceived.Add(1)

        mrw := newMetricsResponseWriter(w)

        next.ServeHTTP(mrw, r)

        totalResponsesSent.Add(1)

        totalResponsesSentByStatus.Add(strconv.Itoa(mrw.statusCode), 1)

        duration := time.Since(start).Microseconds()
        totalProcessingTimeMicroseconds.Add(duration)
    })
}

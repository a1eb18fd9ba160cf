package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthtrack.zzh.net/internal/ratelimit"
)

func newTestApplication(t *testing.T, enabled bool) *application {
    t.Helper()

    return &application{
        logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
        limiters: limiterStores{
            enabled: enabled,
        },
    }
}

func okHandler() http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
    })
}

func TestRateLimitMiddlewareDenies(t *testing.T) {
    app := newTestApplication(t, true)

    store, err := ratelimit.NewStore(ratelimit.Policy{
        Name:    "general",
        Window:  time.Minute,
        Max:     2,
        Message: "Too many requests, please try again later.",
    })
    require.NoError(t, err)

    handler := app.rateLimit(store, okHandler())

    doRequest := func(remoteAddr string) *httptest.ResponseRecorder {
        r := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
        r.RemoteAddr = remoteAddr
        w := httptest.NewRecorder()
        handler.ServeHTTP(w, r)
        return w
    }

    assert.Equal(t, http.StatusOK, doRequest("10.1.1.1:5000").Code)
    assert.Equal(t, http.StatusOK, doRequest("10.1.1.1:5001").Code)

    res := doRequest("10.1.1.1:5002")
    require.Equal(t, http.StatusTooManyRequests, res.Code)

    // Body shape: flat error/message/retryAfter plus the Retry-After header.
    var body struct {
        Error      string `json:"error"`
        Message    string `json:"message"`
        RetryAfter int    `json:"retryAfter"`
    }
    require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))

    assert.Equal(t, "Rate limit exceeded", body.Error)
    assert.Equal(t, "Too many requests, please try again later.", body.Message)
    assert.GreaterOrEqual(t, body.RetryAfter, 0)
    assert.NotEmpty(t, res.Header().Get("Retry-After"))

    // A different client IP is unaffected.
    assert.Equal(t, http.StatusOK, doRequest("10.2.2.2:5000").Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
    app := newTestApplication(t, false)

    store, err := ratelimit.NewStore(ratelimit.Policy{
        Name:    "general",
        Window:  time.Minute,
        Max:     1,
        Message: "limited",
    })
    require.NoError(t, err)

    handler := app.rateLimit(store, okHandler())

    for i := 0; i < 5; i++ {
        r := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
        r.RemoteAddr = "10.1.1.1:5000"
        w := httptest.NewRecorder()
        handler.ServeHTTP(w, r)
        assert.Equal(t, http.StatusOK, w.Code)
    }
}

func TestRecoverPanicMiddleware(t *testing.T) {
    app := newTestApplication(t, false)

    handler := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        panic("boom")
    }))

    r := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
    w := httptest.NewRecorder()
    handler.ServeHTTP(w, r)

    assert.Equal(t, http.StatusInternalServerError, w.Code)
    assert.Equal(t, "close", w.Header().Get("Connection"))
}

package main

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"healthtrack.zzh.net/internal/data"
)

func (app *application) routes() http.Handler {
    router := httprouter.New()

    router.NotFound = http.HandlerFunc(app.notFoundResponse)
    router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

    router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

    // Registration and login sit behind the auth rate-limit policy in addition
    // to the general one guarding the whole router.
    router.HandlerFunc(http.MethodPost, "/v1/users",
        app.rateLimitFunc(app.limiters.auth, app.registerUserHandler))
    router.HandlerFunc(http.MethodPut, "/v1/users/activated", app.activateUserHandler)
    router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication",
        app.rateLimitFunc(app.limiters.auth, app.createAuthenticationTokenHandler))

    router.HandlerFunc(http.MethodGet, "/v1/members",
        app.requirePermission(data.PermissionRecordsRead, app.listMembersHandler))
    router.HandlerFunc(http.MethodPost, "/v1/members",
        app.requirePermission(data.PermissionRecordsWrite, app.createMemberHandler))
    router.HandlerFunc(http.MethodGet, "/v1/members/:id",
        app.requirePermission(data.PermissionRecordsRead, app.showMemberHandler))
    router.HandlerFunc(http.MethodPatch, "/v1/members/:id",
        app.requirePermission(data.PermissionRecordsWrite, app.updateMemberHandler))
    router.HandlerFunc(http.MethodDelete, "/v1/members/:id",
        app.requirePermission(data.PermissionRecordsWrite, app.deleteMemberHandler))

    router.HandlerFunc(http.MethodGet, "/v1/members/:id/vitals",
        app.requirePermission(data.PermissionRecordsRead, app.listVitalsHandler))
    router.HandlerFunc(http.MethodPost, "/v1/members/:id/vitals",
        app.requirePermission(data.PermissionRecordsWrite, app.createVitalHandler))
    router.HandlerFunc(http.MethodDelete, "/v1/vitals/:id",
        app.requirePermission(data.PermissionRecordsWrite, app.deleteVitalHandler))

    // Endpoints accepting file uploads additionally sit behind the upload
    // rate-limit policy.
    router.HandlerFunc(http.MethodGet, "/v1/members/:id/reports",
        app.requirePermission(data.PermissionRecordsRead, app.listReportsHandler))
    router.HandlerFunc(http.MethodPost, "/v1/members/:id/reports",
        app.rateLimitFunc(app.limiters.upload,
            app.requirePermission(data.PermissionRecordsWrite, app.createReportHandler)))
    router.HandlerFunc(http.MethodGet, "/v1/reports/:id",
        app.requirePermission(data.PermissionRecordsRead, app.showReportHandler))
    router.HandlerFunc(http.MethodPatch, "/v1/reports/:id",
        app.rateLimitFunc(app.limiters.upload,
            app.requirePermission(data.PermissionRecordsWrite, app.updateReportHandler)))
    router.HandlerFunc(http.MethodDelete, "/v1/reports/:id",
        app.requirePermission(data.PermissionRecordsWrite, app.deleteReportHandler))
    router.HandlerFunc(http.MethodGet, "/v1/reports/:id/file",
        app.requirePermission(data.PermissionRecordsRead, app.downloadReportFileHandler))

    router.HandlerFunc(http.MethodGet, "/v1/members/:id/documents",
        app.requirePermission(data.PermissionRecordsRead, app.listDocumentsHandler))
    router.HandlerFunc(http.MethodPost, "/v1/members/:id/documents",
        app.rateLimitFunc(app.limiters.upload,
            app.requirePermission(data.PermissionRecordsWrite, app.createDocumentHandler)))
    router.HandlerFunc(http.MethodGet, "/v1/documents/:id",
        app.requirePermission(data.PermissionRecordsRead, app.showDocumentHandler))
    router.HandlerFunc(http.MethodPatch, "/v1/documents/:id",
        app.rateLimitFunc(app.limiters.upload,
            app.requirePermission(data.PermissionRecordsWrite, app.updateDocumentHandler)))
    router.HandlerFunc(http.MethodDelete, "/v1/documents/:id",
        app.requirePermission(data.PermissionRecordsWrite, app.deleteDocumentHandler))
    router.HandlerFunc(http.MethodGet, "/v1/documents/:id/file",
        app.requirePermission(data.PermissionRecordsRead, app.downloadDocumentFileHandler))

    router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())

    return app.metrics(app.recoverPanic(app.enableCORS(app.rateLimit(app.limiters.general, app.authenticate(router)))))
}

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the router.
//
// Two authenticated surfaces hang off /api:
//   - /api/admin/encryption — the operator remediation workflow, requiring
//     a token with the admin role claim;
//   - /api/user — payment management and the client-side-encryption
//     migration helpers, available to any authenticated user.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Get("/api/version", h.getServerVersion)

	// operator surface
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.requireAdmin)

		r.Post("/api/admin/encryption/scan", h.scanForIssues)
		r.Get("/api/admin/encryption/issues", h.listIssues)
		r.Post("/api/admin/encryption/issues/{issueID}/retry", h.retryIssue)
		r.Post("/api/admin/encryption/issues/{issueID}/unrecoverable", h.markIssueUnrecoverable)
		r.Post("/api/admin/encryption/issues/{issueID}/reopen", h.reopenIssue)
	})

	// user surface
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/user/payments", h.createPayment)
		r.Get("/api/user/payments", h.listPayments)
		r.Get("/api/user/encryption-status", h.getEncryptionStatus)
		r.Post("/api/user/prepare-migration", h.prepareMigration)
		r.Post("/api/user/mark-migrated", h.markMigrated)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

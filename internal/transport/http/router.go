// Package httptransport is the thin HTTP layer. Handlers decode requests,
// delegate to the services, and translate coded errors into statuses; no
// business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quill/internal/platform/middleware"
)

// NewRouter wires all endpoints. Mutating article routes and admin routes
// require a valid session token; reads and search are public.
func NewRouter(h *Handler, auth middleware.Authenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Get("/search", h.handleSearch)
	r.Get("/articles/{name}", h.handleGetArticle)
	r.Get("/articles/{name}/revisions", h.handleListRevisions)
	r.Get("/articles/{name}/revisions/{number}", h.handleGetRevision)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth))
		r.Post("/articles", h.handleCreateArticle)
		r.Put("/articles/{name}", h.handleEditArticle)
		r.Post("/articles/{name}/rename", h.handleRenameArticle)
		r.Get("/admin/flags/{name}", h.handleGetFlag)
		r.Put("/admin/flags/{name}", h.handleSetFlag)
	})

	return r
}

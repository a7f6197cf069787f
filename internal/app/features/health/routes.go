// internal/app/features/health/routes.go
package health

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes serves the probe at the mount point (/health). HEAD is answered
// too for load balancers that probe without a body.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}

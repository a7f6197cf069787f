// internal/app/features/dashboard/routes.go
package dashboard

import (
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the review dashboard under /admin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(userstore.RoleAdmin))
		pr.Get("/", h.ServeDashboard)
		pr.Get("/table", h.ServeTable)
		pr.Get("/stream", h.ServeStream)
		pr.Post("/refresh", h.HandleRefresh)
	})

	return r
}

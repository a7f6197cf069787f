// internal/app/features/registrations/routes.go
package registrations

import (
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the per-record admin pages under /admin/registrations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(userstore.RoleAdmin))
		pr.Get("/export.xlsx", h.ServeExportXLSX)
		pr.Get("/export.csv", h.ServeExportCSV)
		pr.Get("/{id}", h.ServeDetail)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/attachments/{index}/delete", h.HandleDeleteAttachment)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}

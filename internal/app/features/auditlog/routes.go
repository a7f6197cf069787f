// internal/app/features/auditlog/routes.go
package auditlog

import (
	userstore "github.com/dalemusser/splereg/internal/app/store/users"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under the path where this router is
// mounted (/admin/audit from bootstrap). Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(userstore.RoleAdmin))
		pr.Get("/", h.ServeList)
	})

	return r
}

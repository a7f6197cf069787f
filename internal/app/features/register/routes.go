// internal/app/features/register/routes.go
package register

import "github.com/go-chi/chi/v5"

// Routes serves the public intake form. No sign-in is required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeForm)
	r.Post("/register", h.HandleSubmit)
	r.Get("/register/success", h.ServeSuccess)
	return r
}

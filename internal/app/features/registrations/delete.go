// internal/app/features/registrations/delete.go
package registrations

import (
	"net/http"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/limits"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// HandleDelete handles POST /admin/registrations/{id}/delete. The row
// leaves the dashboard with the next snapshot from the change feed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, cache, ok := h.reviewer(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAdminFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", detailURL(id))
		return
	}

	rec, _ := cache.Get(id)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registration delete")
	defer cancel()

	if err := h.Editor.Delete(ctx, id); err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			uierrors.RenderNotFound(w, r, "This registration no longer exists.", "/admin")
			return
		}
		h.ErrLog.LogServerError(w, r, "registration delete failed", err, editMessage(err), detailURL(id))
		return
	}

	h.AuditLog.RegistrationDeleted(r.Context(), r, u.ID, objectID(id), rec.Email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

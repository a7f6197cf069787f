// internal/app/features/registrations/edit.go
package registrations

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/editor"
	"github.com/dalemusser/splereg/internal/app/system/formutil"
	"github.com/dalemusser/splereg/internal/app/system/limits"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeEdit handles GET /admin/registrations/{id}/edit, prefilled from
// the cached record.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	_, cache, ok := h.reviewer(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")
	rec, found := cache.Get(id)
	if !found {
		uierrors.RenderNotFound(w, r, "This registration no longer exists.", "/admin")
		return
	}
	cache.SetEditing(id)

	data := h.editForm(r, rec, editor.FieldsOf(rec))
	data.Notice = notices[r.URL.Query().Get("notice")]
	templates.Render(w, r, "registration_edit", data)
}

// HandleEdit handles POST /admin/registrations/{id}/edit: text fields
// are written whole and any chosen files are appended.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	u, cache, ok := h.reviewer(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			h.renderEditError(w, r, cache, id, editor.Fields{}, "The selected files are too large.")
			return
		}
		h.ErrLog.LogBadRequest(w, r, "parse edit form failed", err, "Invalid form data.", editURL(id))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f := fieldsFrom(r)

	files, release, err := mediahost.FromMultipart(r.MultipartForm.File["attachments"])
	defer release()
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "open attachment failed", err, "One of the selected files could not be read.", editURL(id))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration edit")
	defer cancel()

	added, err := h.Editor.Update(ctx, cache, id, f, files)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			uierrors.RenderNotFound(w, r, "This registration no longer exists.", "/admin")
			return
		}
		if apperr.KindOf(err) != apperr.ValidationFailure {
			h.Log.Warn("registration update failed",
				zap.String("registration_id", id),
				zap.String("kind", apperr.KindOf(err).String()),
				zap.Error(err))
		}
		h.renderEditError(w, r, cache, id, f, editMessage(err))
		return
	}

	h.AuditLog.RegistrationUpdated(r.Context(), r, u.ID, objectID(id), added)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// HandleDeleteAttachment handles
// POST /admin/registrations/{id}/attachments/{index}/delete.
func (h *Handler) HandleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	u, cache, ok := h.reviewer(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAdminFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", editURL(id))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad attachment index", err, "Invalid attachment.", editURL(id))
		return
	}

	// Positions are only meaningful against the list the editor showed.
	// If another record has been opened since, reload instead of writing.
	if cache.Editing() != id {
		h.Log.Info("attachment delete for a record not open in the editor",
			zap.String("id", id), zap.String("editing", cache.Editing()))
		http.Redirect(w, r, editURL(id)+"?notice=reopened", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attachment delete")
	defer cancel()

	removed, err := h.Editor.DeleteAttachment(ctx, cache, id, index)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			uierrors.RenderNotFound(w, r, "This registration no longer exists.", "/admin")
			return
		}
		h.renderEditError(w, r, cache, id, editor.Fields{}, editMessage(err))
		return
	}

	h.AuditLog.AttachmentRemoved(r.Context(), r, u.ID, objectID(id), removed.Name)
	http.Redirect(w, r, editURL(id)+"?notice=attachment_removed", http.StatusSeeOther)
}

func (h *Handler) editForm(r *http.Request, rec models.Registration, f editor.Fields) editData {
	data := editData{
		ID:          rec.ID.Hex(),
		FullName:    rec.FullName(),
		Fields:      f,
		Categories:  categoryChoices(f.Category),
		Types:       typeOptions(),
		Attachments: attachmentsVM(rec.Attachments),
		MaxUploadMB: h.MaxUpload >> 20,
	}
	formutil.SetBase(&data.Base, r, "Edit registration", detailURL(data.ID))
	return data
}

// renderEditError re-renders the editor with msg. Zero fields mean the
// form is refilled from the cache.
func (h *Handler) renderEditError(w http.ResponseWriter, r *http.Request, cache *registry.Cache, id string, f editor.Fields, msg string) {
	rec, found := cache.Get(id)
	if !found {
		uierrors.RenderNotFound(w, r, "This registration no longer exists.", "/admin")
		return
	}
	if f == (editor.Fields{}) {
		f = editor.FieldsOf(rec)
	}
	data := h.editForm(r, rec, f)
	data.SetError(msg)
	templates.Render(w, r, "registration_edit", data)
}

// editMessage is the reviewer-facing text for an editor failure.
func editMessage(err error) string {
	if apperr.KindOf(err) == apperr.Unknown {
		return "Error updating registration: " + err.Error()
	}
	return apperr.UserMessage(err)
}

func fieldsFrom(r *http.Request) editor.Fields {
	return editor.Fields{
		Surname:    r.FormValue("surname"),
		FirstName:  r.FormValue("firstname"),
		MiddleName: r.FormValue("midname"),
		Email:      r.FormValue("email"),
		Contact:    r.FormValue("contact"),
		WhatsApp:   r.FormValue("whatsapp"),
		University: r.FormValue("university"),
		Degree:     r.FormValue("degree"),
		Category:   r.FormValue("category"),
		Type:       r.FormValue("type"),
		Remarks:    r.FormValue("remarks"),
	}
}

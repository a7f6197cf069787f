// internal/app/features/registrations/detail.go
package registrations

import (
	"net/http"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeDetail handles GET /admin/registrations/{id}. The record comes
// from the reviewer's cache; only the history panel reads the database.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
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

	data := detailData{
		BaseVM:      viewdata.NewBaseVM(r, rec.FullName(), "/admin"),
		ID:          id,
		Reg:         rec,
		FullName:    rec.FullName(),
		Submitted:   timezones.FormatDate(rec.CreatedAt),
		TypeLabel:   rec.TypeLabel(),
		Attachments: attachmentsVM(rec.Attachments),
	}
	if data.Submitted == "" {
		data.Submitted = "N/A"
	}
	if rec.Signature != nil && rec.Signature.URL != "" {
		data.SignatureURL = rec.Signature.URL
		data.SignatureName = signatureName(rec.Surname)
	}

	if h.History != nil {
		data.ShowHistory = true
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "registration history")
		defer cancel()
		events, err := h.History.ForRegistration(ctx, rec.ID, historyLimit)
		if err != nil {
			h.Log.Warn("load registration history failed",
				zap.String("registration_id", id), zap.Error(err))
		}
		data.History = historyFrom(events)
	}

	templates.Render(w, r, "registration_detail", data)
}

func objectID(id string) primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(id)
	return oid
}

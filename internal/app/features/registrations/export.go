// internal/app/features/registrations/export.go
package registrations

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/system/export"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/domain/models"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

type writeFunc func(w io.Writer, list []models.Registration, loc *time.Location) error

// ServeExportXLSX handles GET /admin/registrations/export.xlsx.
func (h *Handler) ServeExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "xlsx", contentTypeXLSX, export.WriteXLSX)
}

// ServeExportCSV handles GET /admin/registrations/export.csv.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "csv", contentTypeCSV, export.WriteCSV)
}

// serveExport writes every cached registration, ignoring the dashboard
// filters. The file is built in memory so a failure never sends a
// partial download.
func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write writeFunc) {
	u, cache, ok := h.reviewer(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	list := cache.Snapshot()
	if len(list) == 0 {
		uierrors.RenderNotFound(w, r, export.NoDataMessage, "/admin")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, list, timezones.Display()); err != nil {
		h.ErrLog.LogServerError(w, r, "export failed", err, "Could not build the export file.", "/admin")
		return
	}

	h.AuditLog.RegistrationsExported(r.Context(), r, u.ID, ext, len(list))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now().In(timezones.Display()), ext)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

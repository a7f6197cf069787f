// internal/app/features/dashboard/page.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDashboard handles GET /admin: stat cards, filters and the table,
// all computed from the session cache.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	cache, ok := h.cacheFor(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	crit := registry.ParseCriteria(r.URL.Query())

	data := dashboardData{
		BaseVM:     viewdata.NewBaseVM(r, "Registrations", "/admin"),
		Search:     crit.Search,
		Category:   crit.Category,
		Type:       crit.TypeValue(),
		Categories: categoryOptions(),
		Types:      typeOptions(),
		TableURL:   withQuery("/admin/table", crit.Query()),
		StreamURL:  "/admin/stream",
		Registry:   buildRegistry(cache, crit),
	}
	if data.Category == "" {
		data.Category = "all"
	}
	templates.Render(w, r, "admin_dashboard", data)
}

// ServeTable handles GET /admin/table, the partial the page swaps in
// whenever a filter changes or the stream reports a new snapshot.
func (h *Handler) ServeTable(w http.ResponseWriter, r *http.Request) {
	cache, ok := h.cacheFor(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	crit := registry.ParseCriteria(r.URL.Query())
	w.Header().Set("Cache-Control", "no-store")
	templates.RenderSnippet(w, "registry_view", buildRegistry(cache, crit))
}

// HandleRefresh handles POST /admin/refresh: reload the full list into
// every cache, then return to the dashboard with the same filters.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registry refresh")
	defer cancel()

	if err := h.Feed.Reload(ctx); err != nil {
		h.ErrLog.LogServerError(w, r, "registry reload failed", err, "Could not refresh the registrations. Please try again.", "/admin")
		return
	}
	crit := registry.ParseCriteria(r.URL.Query())
	http.Redirect(w, r, withQuery("/admin", crit.Query()), http.StatusSeeOther)
}

// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/splereg/internal/app/features/errors"
	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/timeouts"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /admin/audit - the audit log list with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	loc := timezones.Display()
	q := r.URL.Query()
	filter, page := parseFilter(q, loc)

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.", "/admin")
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.", "/admin")
		return
	}

	// Admin names, fetched once per distinct id.
	names := make(map[primitive.ObjectID]string)
	for _, e := range events {
		if e.UserID == nil {
			continue
		}
		if _, seen := names[*e.UserID]; seen {
			continue
		}
		names[*e.UserID] = e.UserID.Hex()
		if usr, err := h.Users.GetByID(ctx, *e.UserID); err == nil {
			names[*e.UserID] = usr.FullName
		} else {
			h.Log.Debug("audit actor lookup failed", zap.String("user_id", e.UserID.Hex()), zap.Error(err))
		}
	}

	var cache *registry.Cache
	if h.Sessions != nil {
		cache = h.Sessions.For(u.ViewKey())
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, h.itemFor(e, names, cache, loc))
	}

	pages := totalPages(total)
	data := listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit Log", "/admin"),
		Items:      items,
		Category:   filter.Category,
		EventType:  filter.EventType,
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(filter.Category),
		Page:       page,
		TotalPages: pages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if data.HasPrev {
		data.PrevURL = pageURL(q, page-1)
	}
	if data.HasNext {
		data.NextURL = pageURL(q, page+1)
	}
	templates.Render(w, r, "audit_list", data)
}

func (h *Handler) itemFor(e audit.Event, names map[primitive.ObjectID]string, cache *registry.Cache, loc *time.Location) listItem {
	item := listItem{
		When:      e.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
		Category:  e.Category,
		EventType: e.EventType,
		IP:        e.IP,
		Success:   e.Success,
		Reason:    e.FailureReason,
		Details:   e.Details,
	}
	if e.UserID != nil {
		item.ActorName = names[*e.UserID]
	}
	if e.RegistrationID != nil {
		id := e.RegistrationID.Hex()
		item.Registration = id
		if cache != nil {
			if reg, ok := cache.Get(id); ok {
				item.Registration = reg.FullName()
				item.RegLink = "/admin/registrations/" + id
			}
		}
	}
	return item
}

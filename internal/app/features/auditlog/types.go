// internal/app/features/auditlog/types.go
package auditlog

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
)

const pageSize = 50

// listItem represents a single audit event row for display.
type listItem struct {
	When         string
	Category     string
	EventType    string
	ActorName    string // resolved from UserID
	Registration string // resolved from RegistrationID
	RegLink      string
	IP           string
	Success      bool
	Reason       string
	Details      map[string]string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Page       int
	TotalPages int
	Total      int64
	Shown      int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
		{Value: audit.CategoryIntake, Label: "Submissions"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}
	adminEvents := []string{
		audit.EventRegistrationUpdated,
		audit.EventRegistrationDeleted,
		audit.EventAttachmentRemoved,
		audit.EventRegistrationsExport,
	}
	intakeEvents := []string{
		audit.EventRegistrationSubmitted,
		audit.EventSubmissionFailed,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryIntake:
		return intakeEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(intakeEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, intakeEvents...)
		return all
	default:
		return nil
	}
}

// parseFilter reads the list filters and page from the query string.
// Dates are whole days in loc; the end date is inclusive.
func parseFilter(q url.Values, loc *time.Location) (audit.QueryFilter, int) {
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			filter.StartTime = &t
		}
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
			filter.EndTime = &end
		}
	}
	return filter, page
}

// totalPages is at least one so an empty log still shows "page 1 of 1".
func totalPages(total int64) int {
	n := int((total + pageSize - 1) / pageSize)
	if n < 1 {
		n = 1
	}
	return n
}

// pageURL keeps the filters and swaps the page number.
func pageURL(q url.Values, page int) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("page", strconv.Itoa(page))
	return "/admin/audit?" + out.Encode()
}

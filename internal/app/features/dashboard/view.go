// internal/app/features/dashboard/view.go
package dashboard

import (
	"net/url"

	"github.com/dalemusser/splereg/internal/app/system/registry"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/splereg/internal/domain/models"
)

type rowVM struct {
	ID          string
	FullName    string
	Email       string
	Contact     string
	University  string
	Degree      string
	Category    string
	TypeLabel   string
	Pending     bool
	Date        string
	Attachments int
}

type option struct {
	Value string
	Label string
}

// registryVM is the part of the page the event stream re-renders: the
// stat cards and the table.
type registryVM struct {
	Loaded bool
	Stats  registry.Stats
	Rows   []rowVM
	Shown  int
	Query  string
}

type dashboardData struct {
	viewdata.BaseVM

	Search     string
	Category   string
	Type       string
	Categories []option
	Types      []option
	TableURL   string
	StreamURL  string

	Registry registryVM
}

func rowFrom(r models.Registration) rowVM {
	return rowVM{
		ID:          r.ID.Hex(),
		FullName:    r.FullName(),
		Email:       r.Email,
		Contact:     r.Contact,
		University:  r.University,
		Degree:      r.Degree,
		Category:    r.Category,
		TypeLabel:   r.TypeLabel(),
		Pending:     r.IsPending(),
		Date:        timezones.FormatDate(r.CreatedAt),
		Attachments: len(r.Attachments),
	}
}

// buildRegistry computes stats over the whole cache and the table over
// the filtered list. The filter always starts from the full cache.
func buildRegistry(c *registry.Cache, crit registry.Criteria) registryVM {
	all := c.Snapshot()
	shown := registry.Filter(all, crit)

	rows := make([]rowVM, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, rowFrom(r))
	}
	return registryVM{
		Loaded: c.Loaded(),
		Stats:  registry.ComputeStats(all),
		Rows:   rows,
		Shown:  len(rows),
		Query:  crit.Query().Encode(),
	}
}

func categoryOptions() []option {
	out := []option{{Value: "all", Label: "All categories"}}
	for _, c := range models.Categories {
		out = append(out, option{Value: c, Label: c})
	}
	return out
}

func typeOptions() []option {
	return []option{
		{Value: "all", Label: "All types"},
		{Value: "pending", Label: "Pending"},
		{Value: models.TypeMember, Label: models.TypeMember},
		{Value: models.TypeAssociateMember, Label: models.TypeAssociateMember},
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

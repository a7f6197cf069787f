package registry

import (
	"net/url"
	"strings"

	"github.com/dalemusser/splereg/internal/domain/models"
)

// Criteria narrows the cached list. Type is three-state: nil means no
// type filter, "" matches only pending (unassigned) records, anything
// else matches exactly.
type Criteria struct {
	Search   string
	Category string
	Type     *string
}

// ParseCriteria reads search, category and type from query values.
// "all" (or absence) disables a filter; type=pending selects "".
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{Search: strings.TrimSpace(q.Get("search"))}

	if cat := strings.TrimSpace(q.Get("category")); cat != "" && cat != "all" {
		c.Category = cat
	}

	if q.Has("type") {
		switch t := strings.TrimSpace(q.Get("type")); t {
		case "", "all":
		case "pending":
			empty := ""
			c.Type = &empty
		default:
			c.Type = &t
		}
	}
	return c
}

// Query renders c back into query values for links and the table URL.
func (c Criteria) Query() url.Values {
	v := url.Values{}
	if c.Search != "" {
		v.Set("search", c.Search)
	}
	if c.Category != "" {
		v.Set("category", c.Category)
	}
	if c.Type != nil {
		if *c.Type == "" {
			v.Set("type", "pending")
		} else {
			v.Set("type", *c.Type)
		}
	}
	return v
}

// TypeValue is the select value for the type filter.
func (c Criteria) TypeValue() string {
	switch {
	case c.Type == nil:
		return "all"
	case *c.Type == "":
		return "pending"
	default:
		return *c.Type
	}
}

// Filter returns the records in list matching c, in list order. It
// always allocates a new slice and never modifies list.
func Filter(list []models.Registration, c Criteria) []models.Registration {
	needle := strings.ToLower(c.Search)
	out := make([]models.Registration, 0, len(list))
	for _, r := range list {
		if !matchesSearch(r, needle) {
			continue
		}
		if c.Category != "" && r.Category != c.Category {
			continue
		}
		if c.Type != nil && r.Type != *c.Type {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r models.Registration, needle string) bool {
	if needle == "" {
		return true
	}
	name := strings.ToLower(r.FirstName + " " + r.MiddleName + " " + r.Surname)
	if strings.Contains(name, needle) {
		return true
	}
	return strings.Contains(strings.ToLower(r.Email), needle)
}

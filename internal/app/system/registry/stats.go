package registry

import "github.com/dalemusser/splereg/internal/domain/models"

// Stats are the dashboard counters.
type Stats struct {
	Total      int
	Members    int
	Associates int
	Pending    int
}

// ComputeStats counts over the whole list. Pending counts records whose
// type is unset or empty.
func ComputeStats(list []models.Registration) Stats {
	s := Stats{Total: len(list)}
	for _, r := range list {
		switch r.Type {
		case models.TypeMember:
			s.Members++
		case models.TypeAssociateMember:
			s.Associates++
		case "":
			s.Pending++
		}
	}
	return s
}

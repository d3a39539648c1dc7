package view

import (
	"sort"
	"strings"

	"resilicore/internal/incidents"
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
	SortTitle     SortField = "title"
	SortSeverity  SortField = "severity"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// All is the sentinel that disables a status or priority predicate.
const All = "all"

// Query describes one presentation view over the incident collection.
type Query struct {
	Search   string
	Status   string
	Priority string
	Field    SortField
	Order    SortOrder
}

var priorityWeight = map[incidents.Priority]int{
	incidents.PriorityCritical: 4,
	incidents.PriorityHigh:     3,
	incidents.PriorityMedium:   2,
	incidents.PriorityLow:      1,
}

var statusWeight = map[incidents.Status]int{
	incidents.StatusOpen:            4,
	incidents.Status("IN_PROGRESS"): 3,
	incidents.StatusInvestigating:   2,
	incidents.StatusResolved:        1,
}

// Apply filters and sorts a copy of the collection. It is pure: the
// input slice is never reordered or mutated.
func Apply(incs []incidents.Incident, q Query) []incidents.Incident {
	out := make([]incidents.Incident, 0, len(incs))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, inc := range incs {
		if needle != "" && !matches(inc, needle) {
			continue
		}
		if q.Status != "" && q.Status != All && string(inc.Status) != q.Status {
			continue
		}
		if q.Priority != "" && q.Priority != All && string(inc.Priority) != q.Priority {
			continue
		}
		out = append(out, inc)
	}

	field := q.Field
	if field == "" {
		field = SortCreatedAt
	}
	order := q.Order
	if order == "" {
		order = Descending
	}

	sort.SliceStable(out, func(i, j int) bool {
		less := compare(out[i], out[j], field)
		if order == Ascending {
			return less < 0
		}
		return less > 0
	})
	return out
}

// matches is a case-insensitive substring search over title,
// description, incident ID, source and tags.
func matches(inc incidents.Incident, needle string) bool {
	if strings.Contains(strings.ToLower(inc.Title), needle) ||
		strings.Contains(strings.ToLower(inc.Description), needle) ||
		strings.Contains(strings.ToLower(inc.IncidentID), needle) ||
		strings.Contains(strings.ToLower(inc.Source), needle) {
		return true
	}
	for _, tag := range inc.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// compare returns <0, 0 or >0 in ascending-field terms.
func compare(a, b incidents.Incident, field SortField) int {
	switch field {
	case SortPriority:
		return priorityWeight[a.Priority] - priorityWeight[b.Priority]
	case SortStatus:
		return statusWeight[a.Status] - statusWeight[b.Status]
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortSeverity:
		return strings.Compare(string(a.Severity), string(b.Severity))
	default:
		at := incidents.ParseTime(a.CreatedAt)
		bt := incidents.ParseTime(b.CreatedAt)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	}
}

// Sorter tracks the active sort selection. Re-selecting the active
// field flips direction; a new field resets to descending.
type Sorter struct {
	Field SortField
	Order SortOrder
}

func NewSorter() *Sorter {
	return &Sorter{Field: SortCreatedAt, Order: Descending}
}

func (s *Sorter) Select(field SortField) {
	if s.Field == field {
		if s.Order == Ascending {
			s.Order = Descending
		} else {
			s.Order = Ascending
		}
		return
	}
	s.Field = field
	s.Order = Descending
}

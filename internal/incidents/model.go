package incidents

import "strings"

type Status string

const (
	StatusOpen            Status = "OPEN"
	StatusInvestigating   Status = "INVESTIGATING"
	StatusIdentified      Status = "IDENTIFIED"
	StatusMonitoring      Status = "MONITORING"
	StatusResolved        Status = "RESOLVED"
	StatusClosed          Status = "CLOSED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Incident is the canonical record every downstream engine consumes.
// Timestamps stay in their ISO-8601 wire form; Duration is seconds.
// Metrics, AIAnalysis and Actions are backend substructures carried
// through untouched.
type Incident struct {
	ID               string           `json:"id"`
	IncidentID       string           `json:"incidentId"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Status           Status           `json:"status"`
	Priority         Priority         `json:"priority"`
	Severity         Severity         `json:"severity"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
	ResolvedAt       string           `json:"resolvedAt,omitempty"`
	Duration         int64            `json:"duration,omitempty"`
	HasDuration      bool             `json:"-"`
	Tags             []string         `json:"tags"`
	Source           string           `json:"source"`
	Assignee         string           `json:"assignee,omitempty"`
	RequiresApproval bool             `json:"requiresApproval,omitempty"`
	Metrics          map[string]any   `json:"metrics"`
	AIAnalysis       map[string]any   `json:"aiAnalysis,omitempty"`
	Actions          []map[string]any `json:"actions"`
}

// ParseStatus never fails: unrecognized values fall back to OPEN so a
// misbehaving backend cannot break derivation.
func ParseStatus(raw string) Status {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusOpen, StatusInvestigating, StatusIdentified, StatusMonitoring,
		StatusResolved, StatusClosed, StatusPendingApproval:
		return s
	}
	return StatusOpen
}

func ParsePriority(raw string) Priority {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p
	}
	return PriorityMedium
}

func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return s
	}
	return SeverityInfo
}

// Active reports whether the incident still demands attention.
func (i Incident) Active() bool {
	switch i.Status {
	case StatusOpen, StatusInvestigating, StatusPendingApproval:
		return true
	}
	return false
}

// Resolved reports whether the incident reached a terminal healthy state.
func (i Incident) Resolved() bool {
	return i.Status == StatusResolved || i.Status == StatusClosed
}

package alerts

import (
	"fmt"
	"time"

	"resilicore/internal/incidents"
)

// Alert is a transient notice derived from recent unresolved incidents.
// Alerts are never stored; acknowledgment state is inferred from the
// incident status on every derivation pass.
type Alert struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Message        string             `json:"message"`
	Severity       incidents.Severity `json:"severity"`
	Source         string             `json:"source"`
	CreatedAt      string             `json:"createdAt"`
	Acknowledged   bool               `json:"acknowledged"`
	AcknowledgedBy string             `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt string             `json:"acknowledgedAt,omitempty"`
}

// SystemOverloadID identifies the synthesized system-level alert that
// is prepended when several incidents are concurrently active.
const SystemOverloadID = "alert-system-overload"

const overloadThreshold = 3

// Derive promotes recent unresolved incidents to alerts. Incidents
// older than 24 hours or past the investigation stage are skipped.
func Derive(incs []incidents.Incident, now time.Time) []Alert {
	dayAgo := now.Add(-24 * time.Hour)

	out := []Alert{}
	active := 0
	for _, inc := range incs {
		if inc.Status != incidents.StatusOpen && inc.Status != incidents.StatusInvestigating {
			continue
		}
		active++
		created := incidents.ParseTime(inc.CreatedAt)
		if created.IsZero() || !created.After(dayAgo) {
			continue
		}
		out = append(out, toAlert(inc))
	}

	if len(incs) > 0 && active >= overloadThreshold {
		overload := Alert{
			ID:        SystemOverloadID,
			Title:     "Multiple Active Incidents Detected",
			Message:   fmt.Sprintf("%d incidents are currently active, indicating potential system issues", active),
			Severity:  incidents.SeverityWarning,
			Source:    "ResiliCore System",
			CreatedAt: now.UTC().Format(time.RFC3339),
		}
		// Prepended so it is always the most prominent entry.
		out = append([]Alert{overload}, out...)
	}
	return out
}

func toAlert(inc incidents.Incident) Alert {
	message := inc.Description
	if message == "" {
		message = "No description available"
	}
	a := Alert{
		ID:           "alert-" + inc.IncidentID,
		Title:        "Incident: " + inc.Title,
		Message:      message,
		Severity:     severityFor(inc.Priority),
		Source:       inc.Source,
		CreatedAt:    inc.CreatedAt,
		Acknowledged: inc.Status != incidents.StatusOpen,
	}
	if a.Acknowledged {
		a.AcknowledgedBy = "Agent"
		a.AcknowledgedAt = inc.UpdatedAt
	}
	return a
}

func severityFor(p incidents.Priority) incidents.Severity {
	switch p {
	case incidents.PriorityCritical:
		return incidents.SeverityCritical
	case incidents.PriorityHigh:
		return incidents.SeverityError
	case incidents.PriorityMedium:
		return incidents.SeverityWarning
	default:
		return incidents.SeverityInfo
	}
}

// Fallback is the single connectivity alert returned when the incident
// feed itself cannot be derived.
func Fallback(now time.Time) []Alert {
	return []Alert{{
		ID:        "alert-api-connection",
		Title:     "API Connection Issue",
		Message:   "Unable to connect to backend API for real-time alerts",
		Severity:  incidents.SeverityWarning,
		Source:    "Dashboard Monitor",
		CreatedAt: now.UTC().Format(time.RFC3339),
	}}
}

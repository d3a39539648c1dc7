package incidents

import (
	"strconv"
	"strings"
	"time"
)

// RawIncident is the loosely-typed payload shape the backend returns.
// Field presence and types vary by ingestion path, so every access
// goes through the defaulting helpers below.
type RawIncident map[string]any

// Normalize maps a raw backend payload into the canonical Incident.
// It never fails; missing or malformed fields are defaulted.
func Normalize(raw RawIncident, now time.Time) Incident {
	createdAt := rawTimestamp(raw, now, "createdAt", "timestamp")
	updatedAt := rawTimestamp(raw, now, "updatedAt", "timestamp")

	id := firstString(raw, "incidentId", "id")

	inc := Incident{
		ID:               id,
		IncidentID:       id,
		Title:            stringOr(raw, "title", "Untitled Incident"),
		Description:      stringOr(raw, "description", ""),
		Status:           ParseStatus(stringOr(raw, "status", "")),
		Priority:         ParsePriority(stringOr(raw, "priority", "")),
		Severity:         ParseSeverity(stringOr(raw, "severity", "")),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
		ResolvedAt:       stringOr(raw, "resolvedAt", ""),
		Source:           stringOr(raw, "source", "Unknown"),
		Assignee:         stringOr(raw, "assignee", ""),
		RequiresApproval: boolOr(raw, "requiresApproval"),
		Metrics:          mapOr(raw, "metrics"),
		AIAnalysis:       optionalMap(raw, "aiAnalysis"),
		Actions:          listOfMaps(raw, "actions"),
	}

	if d, ok := numberField(raw, "duration"); ok {
		inc.Duration = int64(d)
		inc.HasDuration = true
	}

	inc.Tags = parseTags(raw["tags"])
	if len(inc.Tags) == 0 {
		inc.Tags = deriveTags(optionalMap(raw, "metadata"), stringOr(raw, "source", ""))
	}
	return inc
}

// parseTags handles both list and comma-separated string tag forms.
func parseTags(v any) []string {
	tags := []string{}
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s := strings.TrimSpace(toString(e)); s != "" {
				tags = append(tags, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// deriveTags is a priority cascade over the raw metadata, not a merge:
// the source-as-tag fallback fires only when the metadata yields nothing.
func deriveTags(meta map[string]any, source string) []string {
	tags := []string{}
	if meta != nil {
		if svc := strings.TrimSpace(toString(meta["service"])); svc != "" {
			tags = append(tags, svc)
		}
		if region := strings.TrimSpace(toString(meta["region"])); region != "" {
			tags = append(tags, region)
		}
		if affected, ok := meta["affectedServices"].([]any); ok {
			for i, svc := range affected {
				if i >= 3 {
					break
				}
				if s := strings.TrimSpace(toString(svc)); s != "" {
					tags = append(tags, s)
				}
			}
		}
		if tt := strings.TrimSpace(toString(meta["testType"])); tt != "" {
			tags = append(tags, tt)
		}
	}
	if len(tags) == 0 {
		src := strings.TrimSpace(source)
		if src != "" && src != "manual" && src != "unknown" {
			tags = append(tags, src)
		}
	}
	return tags
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func stringOr(raw RawIncident, key, def string) string {
	if s := strings.TrimSpace(toString(raw[key])); s != "" {
		return s
	}
	return def
}

func firstString(raw RawIncident, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(toString(raw[k])); s != "" {
			return s
		}
	}
	return ""
}

func boolOr(raw RawIncident, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

func numberField(raw RawIncident, key string) (float64, bool) {
	switch n := raw[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func mapOr(raw RawIncident, key string) map[string]any {
	if m, ok := raw[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func optionalMap(raw RawIncident, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

func listOfMaps(raw RawIncident, key string) []map[string]any {
	out := []map[string]any{}
	if list, ok := raw[key].([]any); ok {
		for _, e := range list {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// rawTimestamp resolves the first usable timestamp field. Numeric values
// are epoch milliseconds from the ingestion store; strings pass through
// as-is so the backend's own ISO-8601 formatting is preserved.
func rawTimestamp(raw RawIncident, now time.Time, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v)).UTC().Format(time.RFC3339)
			}
		case int64:
			if v > 0 {
				return time.UnixMilli(v).UTC().Format(time.RFC3339)
			}
		}
	}
	return now.UTC().Format(time.RFC3339)
}

// ParseTime turns a canonical timestamp back into time.Time. The zero
// time is returned for unparseable input so callers can skip it.
func ParseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

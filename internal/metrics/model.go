package metrics

type HealthLevel string

const (
	HealthHealthy  HealthLevel = "HEALTHY"
	HealthWarning  HealthLevel = "WARNING"
	HealthCritical HealthLevel = "CRITICAL"
)

type ServiceStatus string

const (
	ServiceUp       ServiceStatus = "UP"
	ServiceDegraded ServiceStatus = "DEGRADED"
	ServiceDown     ServiceStatus = "DOWN"
)

type SystemMetrics struct {
	TotalIncidents    int               `json:"totalIncidents"`
	ActiveIncidents   int               `json:"activeIncidents"`
	ResolvedIncidents int               `json:"resolvedIncidents"`
	AvgResolutionTime float64           `json:"avgResolutionTime"`
	SystemHealth      SystemHealth      `json:"systemHealth"`
	HealthHistory     []HealthDataPoint `json:"healthHistory"`
}

type SystemHealth struct {
	Overall     HealthLevel     `json:"overall"`
	Services    []ServiceHealth `json:"services"`
	LastUpdated string          `json:"lastUpdated"`
}

// ServiceHealth figures are presentation heuristics derived from the
// active incident count, not measured SLAs.
type ServiceHealth struct {
	Name         string        `json:"name"`
	Status       ServiceStatus `json:"status"`
	ResponseTime float64       `json:"responseTime"`
	Uptime       float64       `json:"uptime"`
}

// HealthDataPoint is one hourly sample of the synthetic 0-100 health
// score. Recomputed every poll cycle, never persisted.
type HealthDataPoint struct {
	Timestamp string      `json:"timestamp"`
	Value     int         `json:"value"`
	Status    HealthLevel `json:"status"`
}

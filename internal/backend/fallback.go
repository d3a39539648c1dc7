package backend

import (
	"time"

	"resilicore/internal/incidents"
)

// FallbackIncidents is the fixed synthetic set substituted when the
// backend is unreachable. It spans the OPEN, INVESTIGATING and
// MONITORING statuses and the CRITICAL/HIGH/MEDIUM priority range so
// every downstream derivation path keeps exercising while disconnected.
func FallbackIncidents(now time.Time) []incidents.RawIncident {
	iso := func(d time.Duration) string {
		return now.Add(-d).UTC().Format(time.RFC3339)
	}

	return []incidents.RawIncident{
		{
			"id":          "INC-001",
			"incidentId":  "INC-001",
			"title":       "High CPU Usage on Production Servers",
			"description": "CPU usage has exceeded 85% on multiple production servers, causing performance degradation.",
			"status":      "INVESTIGATING",
			"priority":    "HIGH",
			"severity":    "WARNING",
			"createdAt":   iso(2 * time.Hour),
			"updatedAt":   iso(30 * time.Minute),
			"duration":    float64(7200),
			"tags":        []any{"performance", "cpu", "production"},
			"source":      "CloudWatch",
			"metrics": map[string]any{
				"cpuUsage":    float64(87),
				"memoryUsage": float64(65),
				"errorRate":   3.2,
			},
			"aiAnalysis": map[string]any{
				"confidence": float64(87),
				"rootCause":  "Memory leak in user-service causing high CPU usage",
				"impact":     "Response times increased by 40%, affecting user experience",
				"recommendations": []any{
					"Restart user-service pods to clear memory leak",
					"Scale up compute resources temporarily",
					"Investigate memory usage patterns in user-service",
				},
			},
			"actions": []any{
				map[string]any{
					"id":          "action-1",
					"type":        "RESTART_SERVICE",
					"description": "Restart user-service pods",
					"status":      "IN_PROGRESS",
					"executedAt":  iso(15 * time.Minute),
					"result":      "Restarting 3 pods...",
				},
			},
		},
		{
			"id":          "INC-002",
			"incidentId":  "INC-002",
			"title":       "Database Connection Pool Exhausted",
			"description": "Database connection pool has reached maximum capacity, causing connection timeouts.",
			"status":      "OPEN",
			"priority":    "CRITICAL",
			"severity":    "ERROR",
			"createdAt":   iso(45 * time.Minute),
			"updatedAt":   iso(10 * time.Minute),
			"duration":    float64(2700),
			"tags":        []any{"database", "connections", "timeout"},
			"source":      "Application Logs",
			"metrics": map[string]any{
				"connectionPoolUsage": float64(100),
				"queryLatency":        float64(5000),
				"errorRate":           15.7,
			},
			"actions": []any{},
		},
		{
			"id":          "INC-003",
			"incidentId":  "INC-003",
			"title":       "API Gateway Rate Limiting Triggered",
			"description": "API gateway has started rate limiting requests due to an unusual traffic spike.",
			"status":      "MONITORING",
			"priority":    "MEDIUM",
			"severity":    "WARNING",
			"createdAt":   iso(6 * time.Hour),
			"updatedAt":   iso(5 * time.Minute),
			"resolvedAt":  iso(30 * time.Minute),
			"duration":    float64(18000),
			"tags":        []any{"api-gateway", "rate-limiting", "traffic"},
			"source":      "API Gateway",
			"metrics": map[string]any{
				"requestRate":  float64(1200),
				"errorRate":    8.3,
				"responseTime": float64(850),
			},
			"actions": []any{
				map[string]any{
					"id":          "action-2",
					"type":        "SCALE_RESOURCES",
					"description": "Increase gateway throttling limits",
					"status":      "COMPLETED",
					"executedAt":  iso(4 * time.Hour),
					"result":      "Throttling limits increased from 1000 to 2000 requests/minute",
				},
			},
		},
	}
}

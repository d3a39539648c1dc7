package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"resilicore/internal/appstate"
	"resilicore/internal/dashboard"
	"resilicore/internal/telemetry"
)

func NewRouter(
	logger *slog.Logger,
	svc *dashboard.Service,
	state *appstate.Store,
	metrics *telemetry.Metrics,
) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Process metrics (Prometheus exposition)
	mux.Handle("/metrics", metrics.Handler())

	// Incidents
	mux.Handle("/api/v1/incidents", &dashboard.IncidentsHandler{
		Service: svc,
		Logger:  logger,
	})
	mux.Handle("/api/v1/incidents/", &dashboard.IncidentDetailHandler{
		Service: svc,
		Logger:  logger,
	})

	// Derived dashboard views
	mux.Handle("/api/v1/dashboard/metrics", &dashboard.MetricsHandler{Service: svc})
	mux.Handle("/api/v1/dashboard/alerts", &dashboard.AlertsHandler{Service: svc})
	mux.Handle("/api/v1/dashboard/health", &dashboard.HealthHandler{Service: svc})
	mux.Handle("/api/v1/dashboard/approvals", &dashboard.ApprovalsHandler{Service: svc})

	// Application state
	notifications := &appstate.NotificationsHandler{Store: state, Logger: logger}
	mux.Handle("/api/v1/notifications", notifications)
	mux.Handle("/api/v1/notifications/", notifications)
	mux.Handle("/api/v1/theme", &appstate.ThemeHandler{Store: state})

	// CORS wrapper (simple, for local UI/tools).
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"resilicore/internal/approval"
	"resilicore/internal/backend"
	"resilicore/internal/incidents"
	"resilicore/internal/metrics"
	"resilicore/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		logger.Error(op, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": apiErr.Error()})
	case errors.Is(err, approval.ErrDecisionPending), errors.Is(err, approval.ErrConflictingDecision):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, approval.ErrMissingIncidentID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		logger.Error(op, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// IncidentsHandler serves the incident collection: filtered/sorted
// list on GET, creation on POST.
type IncidentsHandler struct {
	Service *Service
	Logger  *slog.Logger
}

func (h *IncidentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		query := view.Query{
			Search:   q.Get("search"),
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
			Field:    view.SortField(q.Get("sort")),
			Order:    view.SortOrder(q.Get("order")),
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"incidents":     h.Service.View(query),
			"usingFallback": h.Service.UsingFallback(),
		})
	case http.MethodPost:
		var payload incidents.RawIncident
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		created, err := h.Service.Create(r.Context(), payload)
		if err != nil {
			writeError(w, h.Logger, "create incident", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// IncidentDetailHandler serves a single incident and its write
// sub-resources: GET detail, PATCH status, POST approve/deny.
type IncidentDetailHandler struct {
	Service *Service
	Logger  *slog.Logger
}

func (h *IncidentDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path is /api/v1/incidents/{id}[/status|/approve]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[3] == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id := parts[3]
	sub := ""
	if len(parts) > 4 {
		sub = parts[4]
	}

	switch {
	case r.Method == http.MethodGet && sub == "":
		inc, ok := h.Service.Incident(r.Context(), id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "incident not found"})
			return
		}
		writeJSON(w, http.StatusOK, inc)

	case r.Method == http.MethodPatch && sub == "status":
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Status == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Service.UpdateStatus(r.Context(), id, incidents.ParseStatus(payload.Status)); err != nil {
			writeError(w, h.Logger, "update incident status", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && sub == "approve":
		var payload struct {
			Action string `json:"action"`
			User   string `json:"user"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var err error
		switch payload.Action {
		case "approve":
			err = h.Service.Approve(r.Context(), id, payload.User)
		case "deny":
			err = h.Service.Deny(r.Context(), id, payload.User, payload.Reason)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": `action must be "approve" or "deny"`})
			return
		}
		if err != nil {
			writeError(w, h.Logger, "decide incident", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"incidentId": id, "action": payload.Action})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// MetricsHandler serves the derived SystemMetrics snapshot. An `hours`
// query param truncates the health history to the trailing window.
type MetricsHandler struct {
	Service *Service
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	m := h.Service.Metrics()
	if v := r.URL.Query().Get("hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be a positive integer"})
			return
		}
		m.HealthHistory = metrics.HistoryWindow(m.HealthHistory, hours)
	}
	writeJSON(w, http.StatusOK, m)
}

// ApprovalsHandler serves the recorded approval decisions.
type ApprovalsHandler struct {
	Service *Service
}

func (h *ApprovalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": h.Service.Decisions()})
}

// AlertsHandler serves the derived alert list.
type AlertsHandler struct {
	Service *Service
}

func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": h.Service.Alerts()})
}

// HealthHandler reports backend connectivity and the fallback flag.
type HealthHandler struct {
	Service *Service
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Health(r.Context()))
}

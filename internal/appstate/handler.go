package appstate

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"
)

// NotificationsHandler exposes the notification list and its lifecycle
// operations: list, mark-read, clear.
type NotificationsHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path is /api/v1/notifications[/{id}/read]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 3:
		switch r.Method {
		case http.MethodGet:
			h.writeJSON(w, http.StatusOK, map[string]any{
				"notifications": h.Store.Notifications(),
				"unread":        h.Store.UnreadCount(),
				"user":          h.Store.User(),
				"theme":         h.Store.Theme(),
			})
		case http.MethodDelete:
			h.Store.ClearNotifications()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case len(parts) == 5 && parts[4] == "read":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !h.Store.MarkRead(parts[3]) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ThemeHandler reads and updates the persisted theme preference.
type ThemeHandler struct {
	Store *Store
}

func (h *ThemeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeTheme(w, h.Store.Theme())
	case http.MethodPost:
		var payload struct {
			Theme Theme `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Theme == "" {
			writeTheme(w, h.Store.ToggleTheme())
			return
		}
		if payload.Theme != ThemeLight && payload.Theme != ThemeDark {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": `theme must be "light" or "dark"`})
			return
		}
		h.Store.SetTheme(payload.Theme)
		writeTheme(w, h.Store.Theme())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeTheme(w http.ResponseWriter, t Theme) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]Theme{"theme": t})
}

func (h *NotificationsHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && h.Logger != nil {
		h.Logger.Error("encode notifications response", "err", err)
	}
}

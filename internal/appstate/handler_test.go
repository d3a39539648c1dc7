package appstate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsHandlerList(t *testing.T) {
	store := NewStore("", testLogger())
	store.AddNotification(Notification{Title: "hello", Type: NotifyInfo})
	h := &NotificationsHandler{Store: store, Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Notifications []Notification `json:"notifications"`
		Unread        int            `json:"unread"`
		Theme         Theme          `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "hello", body.Notifications[0].Title)
	assert.Equal(t, 1, body.Unread)
	assert.Equal(t, ThemeLight, body.Theme)
}

func TestNotificationsHandlerMarkReadAndClear(t *testing.T) {
	store := NewStore("", testLogger())
	n := store.AddNotification(Notification{Title: "ack"})
	h := &NotificationsHandler{Store: store, Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.UnreadCount())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/missing/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Notifications())
}

func TestNotificationsHandlerStatusCodes(t *testing.T) {
	store := NewStore("", testLogger())
	h := &NotificationsHandler{Store: store, Logger: testLogger()}

	// Unknown sub-path is a 404, not a method complaint.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/abc/archive", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Known paths with the wrong method stay 405.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/abc/read", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestThemeHandlerSetAndToggle(t *testing.T) {
	store := NewStore("", testLogger())
	h := &ThemeHandler{Store: store}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/theme",
		strings.NewReader(`{"theme": "dark"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ThemeDark, store.Theme())

	// An empty body toggles.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/theme", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ThemeLight, store.Theme())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/theme", nil))
	var body map[string]Theme
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ThemeLight, body["theme"])
}

func TestThemeHandlerRejectsUnknownTheme(t *testing.T) {
	store := NewStore("", testLogger())
	h := &ThemeHandler{Store: store}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/theme",
		strings.NewReader(`{"theme": "sepia"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ThemeLight, store.Theme())
}

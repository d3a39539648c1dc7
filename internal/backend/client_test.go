package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(baseURL, 2*time.Second, logger, nil)
}

func TestFetchIncidentsWrappedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/incidents", r.URL.Path)
		w.Write([]byte(`{"incidents": [{"incidentId": "inc-1"}, {"incidentId": "inc-2"}]}`))
	}))
	defer srv.Close()

	raw, fallback := testClient(srv.URL).FetchIncidents(context.Background())
	assert.False(t, fallback)
	require.Len(t, raw, 2)
	assert.Equal(t, "inc-1", raw[0]["incidentId"])
}

func TestFetchIncidentsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"incidentId": "inc-1"}]`))
	}))
	defer srv.Close()

	raw, fallback := testClient(srv.URL).FetchIncidents(context.Background())
	assert.False(t, fallback)
	require.Len(t, raw, 1)
}

func TestFetchIncidentsFallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // connection refused from here on

	raw, fallback := testClient(srv.URL).FetchIncidents(context.Background())
	assert.True(t, fallback)
	require.Len(t, raw, 3)

	statuses := map[string]bool{}
	for _, inc := range raw {
		statuses[inc["status"].(string)] = true
	}
	assert.True(t, statuses["OPEN"])
	assert.True(t, statuses["INVESTIGATING"])
	assert.True(t, statuses["MONITORING"])
}

func TestFetchIncidentsFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, fallback := testClient(srv.URL).FetchIncidents(context.Background())
	assert.True(t, fallback)
}

func TestFetchIncidentsFallsBackOnMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"not an incident list"`))
	}))
	defer srv.Close()

	_, fallback := testClient(srv.URL).FetchIncidents(context.Background())
	assert.True(t, fallback)
}

func TestGetIncident(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/incidents/inc-7", r.URL.Path)
		w.Write([]byte(`{"incidentId": "inc-7", "title": "Queue backlog"}`))
	}))
	defer srv.Close()

	raw, err := testClient(srv.URL).GetIncident(context.Background(), "inc-7")
	require.NoError(t, err)
	assert.Equal(t, "Queue backlog", raw["title"])
}

func TestGetIncidentErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetIncident(context.Background(), "inc-404")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCreateIncidentAssignsID(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"message": "created"}`))
	}))
	defer srv.Close()

	created, err := testClient(srv.URL).CreateIncident(context.Background(), map[string]any{"title": "disk full"})
	require.NoError(t, err)
	assert.NotEmpty(t, received["incidentId"])
	// The backend echoed only a status message, so the enriched input
	// comes back.
	assert.Equal(t, received["incidentId"], created["incidentId"])
	assert.Equal(t, "disk full", created["title"])
}

func TestApproveSendsDecisionPayload(t *testing.T) {
	var path string
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"message": "ok"}`))
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv.URL).Approve(context.Background(), "inc-9", "operator"))
	assert.Equal(t, "/incidents/inc-9/approve", path)
	assert.Equal(t, "approve", received["action"])
	assert.Equal(t, "operator", received["user"])

	require.NoError(t, testClient(srv.URL).Deny(context.Background(), "inc-9", "operator", "too risky"))
	assert.Equal(t, "deny", received["action"])
	assert.Equal(t, "too risky", received["reason"])
}

func TestWriteFailureSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error": "agent unavailable"}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).Approve(context.Background(), "inc-9", "operator")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "agent unavailable", apiErr.Message)
}

func TestUpdateStatusUsesPatch(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv.URL).UpdateStatus(context.Background(), "inc-3", "RESOLVED"))
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/incidents/inc-3/status", path)
}

func TestCheckHealthToleratesClientErrors(t *testing.T) {
	status := http.StatusForbidden
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	assert.True(t, c.CheckHealth(context.Background()))

	status = http.StatusNotFound
	assert.True(t, c.CheckHealth(context.Background()))

	status = http.StatusInternalServerError
	assert.False(t, c.CheckHealth(context.Background()))

	srv.Close()
	assert.False(t, c.CheckHealth(context.Background()))
}

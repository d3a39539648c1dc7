package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"resilicore/internal/incidents"
	"resilicore/internal/telemetry"
)

// ErrBackendUnavailable marks transport-level failures on the read path.
// Callers never see it directly; reads substitute fallback data instead.
var ErrBackendUnavailable = errors.New("backend unavailable")

// APIError is the typed failure surfaced on the write path. Writes are
// never silently substituted: a failed approval mistaken for a granted
// one is worse than a visible error.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Client talks to the backend incident service. Reads degrade to the
// synthetic fallback set; writes propagate typed errors.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *telemetry.Metrics
	nowFn   func() time.Time
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *telemetry.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
		nowFn:   time.Now,
	}
}

// FetchIncidents returns the raw incident list. The second result is
// true when the backend was unreachable and the fixed synthetic set was
// substituted, so the presentation layer can show a fallback indicator.
func (c *Client) FetchIncidents(ctx context.Context) ([]incidents.RawIncident, bool) {
	body, err := c.get(ctx, "/incidents")
	if err != nil {
		c.logger.Warn("fetch incidents failed, using fallback data", "err", err)
		if c.metrics != nil {
			c.metrics.FallbackReads.Inc()
		}
		return FallbackIncidents(c.nowFn()), true
	}

	// The backend returns either {"incidents": [...]} or a bare array.
	var wrapped struct {
		Incidents []incidents.RawIncident `json:"incidents"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Incidents != nil {
		return wrapped.Incidents, false
	}
	var bare []incidents.RawIncident
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, false
	}
	c.logger.Warn("unexpected incidents payload shape, using fallback data")
	if c.metrics != nil {
		c.metrics.FallbackReads.Inc()
	}
	return FallbackIncidents(c.nowFn()), true
}

// GetIncident fetches a single incident. Unlike the list path, errors
// propagate so detail views can report them.
func (c *Client) GetIncident(ctx context.Context, id string) (incidents.RawIncident, error) {
	body, err := c.get(ctx, "/incidents/"+id)
	if err != nil {
		return nil, err
	}
	var raw incidents.RawIncident
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode incident %s: %w", id, err)
	}
	return raw, nil
}

// CreateIncident posts a new incident. An incidentId is assigned
// client-side when the caller supplies none, mirroring the ingestion
// service's own behavior.
func (c *Client) CreateIncident(ctx context.Context, payload incidents.RawIncident) (incidents.RawIncident, error) {
	if payload == nil {
		payload = incidents.RawIncident{}
	}
	if s, _ := payload["incidentId"].(string); s == "" {
		payload["incidentId"] = uuid.NewString()
	}
	body, err := c.write(ctx, http.MethodPost, "/incidents", payload, "create incident")
	if err != nil {
		return nil, err
	}
	var created incidents.RawIncident
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		// Some backends echo only a status message; fall back to the input.
		return payload, nil
	}
	return created, nil
}

// Approve asks the backend to release the incident for automated
// processing.
func (c *Client) Approve(ctx context.Context, incidentID, user string) error {
	payload := map[string]any{"action": "approve", "user": user}
	_, err := c.write(ctx, http.MethodPost, "/incidents/"+incidentID+"/approve", payload, "approve incident")
	return err
}

// Deny halts automated processing for the incident.
func (c *Client) Deny(ctx context.Context, incidentID, user, reason string) error {
	payload := map[string]any{"action": "deny", "user": user, "reason": reason}
	_, err := c.write(ctx, http.MethodPost, "/incidents/"+incidentID+"/approve", payload, "deny incident")
	return err
}

// UpdateStatus patches the incident lifecycle status.
func (c *Client) UpdateStatus(ctx context.Context, incidentID string, status incidents.Status) error {
	payload := map[string]any{"status": status}
	_, err := c.write(ctx, http.MethodPatch, "/incidents/"+incidentID+"/status", payload, "update incident status")
	return err
}

// healthProbeID is the incident ID used for connectivity probes. The
// backend answering at all, including 404 or an auth rejection, means
// it is reachable; only transport errors and 5xx count as down.
const healthProbeID = "connectivity-probe"

func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/incidents/"+healthProbeID, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) write(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, &APIError{Op: op, Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, &APIError{Op: op, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.countWriteFailure(op)
		return nil, &APIError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		c.countWriteFailure(op)
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func (c *Client) countWriteFailure(op string) {
	if c.metrics != nil {
		c.metrics.WriteFailures.WithLabelValues(op).Inc()
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return "request failed"
}

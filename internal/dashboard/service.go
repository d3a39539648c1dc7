package dashboard

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"resilicore/internal/alerts"
	"resilicore/internal/approval"
	"resilicore/internal/incidents"
	"resilicore/internal/metrics"
	"resilicore/internal/view"
)

// Repository is the backend client surface the dashboard needs.
type Repository interface {
	FetchIncidents(ctx context.Context) ([]incidents.RawIncident, bool)
	GetIncident(ctx context.Context, id string) (incidents.RawIncident, error)
	CreateIncident(ctx context.Context, payload incidents.RawIncident) (incidents.RawIncident, error)
	UpdateStatus(ctx context.Context, incidentID string, status incidents.Status) error
	CheckHealth(ctx context.Context) bool
}

// Service owns the shared read model for one polling cycle: the
// normalized incident collection and everything derived from it.
// Refreshes are fetch-then-swap under a single writer, so concurrent
// readers never observe a partially-updated list.
type Service struct {
	repo      Repository
	engine    *metrics.Engine
	approvals *approval.Coordinator
	logger    *slog.Logger
	nowFn     func() time.Time

	mu            sync.RWMutex
	incidentList  []incidents.Incident
	systemMetrics metrics.SystemMetrics
	alertList     []alerts.Alert
	usingFallback bool
	lastRefreshed time.Time
}

func NewService(repo Repository, engine *metrics.Engine, approvals *approval.Coordinator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		approvals: approvals,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// RefreshIncidents fetches, normalizes and re-derives metrics in one
// pass, then swaps the read model.
func (s *Service) RefreshIncidents(ctx context.Context) {
	now := s.nowFn()
	raws, fallback := s.repo.FetchIncidents(ctx)
	normalized := make([]incidents.Incident, 0, len(raws))
	for _, raw := range raws {
		normalized = append(normalized, incidents.Normalize(raw, now))
	}
	derived := s.engine.Derive(normalized, now)

	s.mu.Lock()
	s.incidentList = normalized
	s.systemMetrics = derived
	s.usingFallback = fallback
	s.lastRefreshed = now
	s.mu.Unlock()
}

// RefreshAlerts runs its own fetch so the alert stream stays
// independent of the incident refresh cadence.
func (s *Service) RefreshAlerts(ctx context.Context) {
	now := s.nowFn()
	derived := func() (out []alerts.Alert) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("alert derivation failed, returning fallback", "panic", r)
				out = alerts.Fallback(now)
			}
		}()
		raws, _ := s.repo.FetchIncidents(ctx)
		normalized := make([]incidents.Incident, 0, len(raws))
		for _, raw := range raws {
			normalized = append(normalized, incidents.Normalize(raw, now))
		}
		return alerts.Derive(normalized, now)
	}()

	s.mu.Lock()
	s.alertList = derived
	s.mu.Unlock()
}

// Incidents returns a copy of the current normalized collection.
func (s *Service) Incidents() []incidents.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]incidents.Incident, len(s.incidentList))
	copy(out, s.incidentList)
	return out
}

// Incident looks up one incident in the current snapshot, falling back
// to a direct backend fetch when the snapshot misses; the incident may
// be newer than the last refresh.
func (s *Service) Incident(ctx context.Context, id string) (incidents.Incident, bool) {
	s.mu.RLock()
	for _, inc := range s.incidentList {
		if inc.IncidentID == id || inc.ID == id {
			s.mu.RUnlock()
			return inc, true
		}
	}
	s.mu.RUnlock()

	raw, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return incidents.Incident{}, false
	}
	return incidents.Normalize(raw, s.nowFn()), true
}

// View applies the filter/sort query to the current snapshot.
func (s *Service) View(q view.Query) []incidents.Incident {
	return view.Apply(s.Incidents(), q)
}

func (s *Service) Metrics() metrics.SystemMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemMetrics
}

func (s *Service) Alerts() []alerts.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.Alert, len(s.alertList))
	copy(out, s.alertList)
	return out
}

// UsingFallback reports whether the last incident refresh served
// synthetic data because the backend was unreachable.
func (s *Service) UsingFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usingFallback
}

func (s *Service) LastRefreshed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshed
}

// Health describes backend connectivity for the presentation layer.
type Health struct {
	Status        string    `json:"status"`
	UsingFallback bool      `json:"usingFallback"`
	LastRefreshed time.Time `json:"lastRefreshed"`
	Timestamp     string    `json:"timestamp"`
}

func (s *Service) Health(ctx context.Context) Health {
	status := "healthy"
	if !s.repo.CheckHealth(ctx) {
		status = "error"
	}
	return Health{
		Status:        status,
		UsingFallback: s.UsingFallback(),
		LastRefreshed: s.LastRefreshed(),
		Timestamp:     s.nowFn().UTC().Format(time.RFC3339),
	}
}

// Create forwards a new incident to the backend. Write failures
// propagate so the caller can block its optimistic update.
func (s *Service) Create(ctx context.Context, payload incidents.RawIncident) (incidents.Incident, error) {
	created, err := s.repo.CreateIncident(ctx, payload)
	if err != nil {
		return incidents.Incident{}, err
	}
	s.RefreshIncidents(ctx)
	return incidents.Normalize(created, s.nowFn()), nil
}

// UpdateStatus patches the incident's lifecycle status on the backend.
func (s *Service) UpdateStatus(ctx context.Context, incidentID string, status incidents.Status) error {
	if err := s.repo.UpdateStatus(ctx, incidentID, status); err != nil {
		return err
	}
	s.RefreshIncidents(ctx)
	return nil
}

// Approve relays the human decision through the approval coordinator.
func (s *Service) Approve(ctx context.Context, incidentID, actor string) error {
	if err := s.approvals.Approve(ctx, incidentID, actor); err != nil {
		return err
	}
	s.RefreshIncidents(ctx)
	return nil
}

// Deny halts automated processing for the incident.
func (s *Service) Deny(ctx context.Context, incidentID, actor, reason string) error {
	if err := s.approvals.Deny(ctx, incidentID, actor, reason); err != nil {
		return err
	}
	s.RefreshIncidents(ctx)
	return nil
}

// Decisions returns the recorded approval outcomes.
func (s *Service) Decisions() []approval.Record {
	return s.approvals.Decisions()
}

package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"resilicore/internal/appstate"
	"resilicore/internal/incidents"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
)

// DefaultDenyReason is recorded when a denial carries no explanation.
const DefaultDenyReason = "No reason provided"

var (
	ErrMissingIncidentID = errors.New("missing incident id")
	// ErrDecisionPending rejects a duplicate decision while the first
	// call is still in flight, so retries never double-apply.
	ErrDecisionPending = errors.New("a decision for this incident is already in flight")
	// ErrConflictingDecision rejects an approve after a deny (or the
	// reverse) for the same request.
	ErrConflictingDecision = errors.New("incident already has a conflicting decision")
)

// Record is one human decision on an incident's approval request.
type Record struct {
	IncidentID string    `json:"incidentId"`
	Action     Action    `json:"action"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// Backend is the write path used to relay decisions to the incident
// service.
type Backend interface {
	Approve(ctx context.Context, incidentID, user string) error
	Deny(ctx context.Context, incidentID, user, reason string) error
}

// Coordinator gates automated incident processing behind an explicit
// human decision. Decisions are terminal per request: repeating the
// same action is a no-op and a conflicting action is rejected. The
// incident's overall lifecycle stays with the external agent.
type Coordinator struct {
	backend Backend
	state   *appstate.Store
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]Action
	decided  map[string]Record
	nowFn    func() time.Time
}

func NewCoordinator(backend Backend, state *appstate.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		backend:  backend,
		state:    state,
		logger:   logger,
		inflight: map[string]Action{},
		decided:  map[string]Record{},
		nowFn:    time.Now,
	}
}

// RequiresApproval reports whether the incident is gated on a human
// decision, either via the explicit flag or its status.
func RequiresApproval(inc incidents.Incident) bool {
	return inc.RequiresApproval || inc.Status == incidents.StatusPendingApproval
}

// Approve clears the pending-approval requirement so the backend agent
// may proceed. Transport failures surface to the caller; a silently
// failed approval could be mistaken for a granted one.
func (c *Coordinator) Approve(ctx context.Context, incidentID, actor string) error {
	done, err := c.begin(incidentID, ActionApprove)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := c.backend.Approve(ctx, incidentID, actor); err != nil {
		c.abort(incidentID)
		return err
	}
	c.commit(Record{IncidentID: incidentID, Action: ActionApprove, Actor: actor, DecidedAt: c.nowFn().UTC()})

	c.logger.Info("incident approved", "incident", incidentID, "actor", actor)
	c.state.AddNotification(appstate.Notification{
		Title:   "Incident Approved",
		Message: fmt.Sprintf("Incident %s has been approved for processing", incidentID),
		Type:    appstate.NotifySuccess,
	})
	return nil
}

// Deny halts automated processing for the incident.
func (c *Coordinator) Deny(ctx context.Context, incidentID, actor, reason string) error {
	if reason == "" {
		reason = DefaultDenyReason
	}
	done, err := c.begin(incidentID, ActionDeny)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := c.backend.Deny(ctx, incidentID, actor, reason); err != nil {
		c.abort(incidentID)
		return err
	}
	c.commit(Record{IncidentID: incidentID, Action: ActionDeny, Actor: actor, Reason: reason, DecidedAt: c.nowFn().UTC()})

	c.logger.Info("incident denied", "incident", incidentID, "actor", actor, "reason", reason)
	c.state.AddNotification(appstate.Notification{
		Title:   "Incident Denied",
		Message: fmt.Sprintf("Incident %s has been denied", incidentID),
		Type:    appstate.NotifyInfo,
	})
	return nil
}

// Decision returns the recorded outcome for an incident, if any.
func (c *Coordinator) Decision(incidentID string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.decided[incidentID]
	return rec, ok
}

// Decisions returns a snapshot of every recorded outcome.
func (c *Coordinator) Decisions() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, 0, len(c.decided))
	for _, rec := range c.decided {
		out = append(out, rec)
	}
	return out
}

// begin validates the request and claims the in-flight slot. done is
// true when the same decision was already recorded, making the repeat
// call a no-op.
func (c *Coordinator) begin(incidentID string, action Action) (done bool, err error) {
	if incidentID == "" {
		return false, ErrMissingIncidentID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.decided[incidentID]; ok {
		if rec.Action == action {
			return true, nil
		}
		return false, ErrConflictingDecision
	}
	if _, ok := c.inflight[incidentID]; ok {
		return false, ErrDecisionPending
	}
	c.inflight[incidentID] = action
	return false, nil
}

func (c *Coordinator) abort(incidentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, incidentID)
}

func (c *Coordinator) commit(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, rec.IncidentID)
	c.decided[rec.IncidentID] = rec
}

package approval

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilicore/internal/appstate"
	"resilicore/internal/incidents"
)

type fakeBackend struct {
	approves int
	denies   int
	reason   string
	err      error
}

func (f *fakeBackend) Approve(ctx context.Context, incidentID, user string) error {
	f.approves++
	return f.err
}

func (f *fakeBackend) Deny(ctx context.Context, incidentID, user, reason string) error {
	f.denies++
	f.reason = reason
	return f.err
}

func newCoordinator(backend Backend) (*Coordinator, *appstate.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	state := appstate.NewStore("", logger)
	return NewCoordinator(backend, state, logger), state
}

func TestApproveIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	c, state := newCoordinator(backend)

	require.NoError(t, c.Approve(context.Background(), "inc-1", "operator"))
	require.NoError(t, c.Approve(context.Background(), "inc-1", "operator"))

	assert.Equal(t, 1, backend.approves)

	rec, ok := c.Decision("inc-1")
	require.True(t, ok)
	assert.Equal(t, ActionApprove, rec.Action)
	assert.Equal(t, "operator", rec.Actor)
	assert.Len(t, c.Decisions(), 1)

	notes := state.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "Incident Approved", notes[0].Title)
	assert.Equal(t, appstate.NotifySuccess, notes[0].Type)
}

func TestDenyDefaultsReason(t *testing.T) {
	backend := &fakeBackend{}
	c, state := newCoordinator(backend)

	require.NoError(t, c.Deny(context.Background(), "inc-1", "operator", ""))

	assert.Equal(t, DefaultDenyReason, backend.reason)
	rec, ok := c.Decision("inc-1")
	require.True(t, ok)
	assert.Equal(t, DefaultDenyReason, rec.Reason)

	notes := state.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "Incident Denied", notes[0].Title)
	assert.Equal(t, appstate.NotifyInfo, notes[0].Type)
}

// blockingBackend parks inside Approve until released so a second
// decision can arrive while the first is still in flight.
type blockingBackend struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (b *blockingBackend) Approve(ctx context.Context, incidentID, user string) error {
	b.calls.Add(1)
	close(b.entered)
	<-b.release
	return nil
}

func (b *blockingBackend) Deny(ctx context.Context, incidentID, user, reason string) error {
	b.calls.Add(1)
	return nil
}

func TestConcurrentDuplicateApproveRejected(t *testing.T) {
	backend := &blockingBackend{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, _ := newCoordinator(backend)

	done := make(chan error, 1)
	go func() {
		done <- c.Approve(context.Background(), "inc-1", "operator")
	}()
	<-backend.entered

	// The duplicate arrives while the first call holds the in-flight
	// slot; it must be rejected, never relayed a second time.
	err := c.Approve(context.Background(), "inc-1", "operator")
	assert.ErrorIs(t, err, ErrDecisionPending)

	close(backend.release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), backend.calls.Load())

	// Once committed, repeating the same decision is a plain no-op.
	require.NoError(t, c.Approve(context.Background(), "inc-1", "operator"))
	assert.Equal(t, int64(1), backend.calls.Load())
}

func TestConflictingDecisionRejected(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newCoordinator(backend)

	require.NoError(t, c.Approve(context.Background(), "inc-1", "operator"))

	err := c.Deny(context.Background(), "inc-1", "operator", "changed my mind")
	assert.ErrorIs(t, err, ErrConflictingDecision)
	assert.Equal(t, 0, backend.denies)
}

func TestBackendFailureAllowsRetry(t *testing.T) {
	backend := &fakeBackend{err: errors.New("backend down")}
	c, state := newCoordinator(backend)

	err := c.Approve(context.Background(), "inc-1", "operator")
	require.Error(t, err)
	assert.Empty(t, state.Notifications())

	_, ok := c.Decision("inc-1")
	assert.False(t, ok)

	backend.err = nil
	require.NoError(t, c.Approve(context.Background(), "inc-1", "operator"))
	assert.Equal(t, 2, backend.approves)
}

func TestMissingIncidentID(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newCoordinator(backend)

	assert.ErrorIs(t, c.Approve(context.Background(), "", "operator"), ErrMissingIncidentID)
	assert.ErrorIs(t, c.Deny(context.Background(), "", "operator", "x"), ErrMissingIncidentID)
	assert.Equal(t, 0, backend.approves)
	assert.Equal(t, 0, backend.denies)
}

func TestRequiresApproval(t *testing.T) {
	assert.True(t, RequiresApproval(incidents.Incident{RequiresApproval: true}))
	assert.True(t, RequiresApproval(incidents.Incident{Status: incidents.StatusPendingApproval}))
	assert.False(t, RequiresApproval(incidents.Incident{Status: incidents.StatusOpen}))
}

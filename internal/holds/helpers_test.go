package holds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ticketholds/internal/inventory"
	"ticketholds/internal/notifications"
	"ticketholds/internal/shared/clock"
	"ticketholds/pkg/logger"
	"ticketholds/pkg/retry"
)

var (
	testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	errFlaky  = errors.New("connection reset by peer")
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.ReleaseEvent
	err    error
}

func (n *recordingNotifier) NotifyReleased(ctx context.Context, event notifications.ReleaseEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []notifications.ReleaseEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.ReleaseEvent(nil), n.events...)
}

// faultyRepository wraps a Repository and fails selected calls
type faultyRepository struct {
	Repository

	mu              sync.Mutex
	createFailures  int
	findExpiredFail bool
}

func (r *faultyRepository) Create(ctx context.Context, hold *Hold) error {
	r.mu.Lock()
	if r.createFailures != 0 {
		if r.createFailures > 0 {
			r.createFailures--
		}
		r.mu.Unlock()
		return errFlaky
	}
	r.mu.Unlock()
	return r.Repository.Create(ctx, hold)
}

func (r *faultyRepository) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	r.mu.Lock()
	fail := r.findExpiredFail
	r.mu.Unlock()
	if fail {
		return nil, errFlaky
	}
	return r.Repository.FindExpiredActive(ctx, now, limit)
}

type fixture struct {
	clock     *clock.Fake
	pool      inventory.Pool
	repo      Repository
	notifier  *recordingNotifier
	manager   *Manager
	scheduler *ExpirationScheduler
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRepo(t, NewMemoryRepository())
}

func newFixtureWithRepo(t *testing.T, repo Repository) *fixture {
	t.Helper()

	clk := clock.NewFake(testStart)
	log := logger.Discard()
	pool := inventory.NewMemoryPool(log)
	notifier := &recordingNotifier{}

	manager := NewManager(pool, repo, notifier,
		WithClock(clk),
		WithLogger(log),
		WithMaxHoldDuration(30*time.Second),
		WithRetryPolicy(retry.Policy{Attempts: 2, Backoff: 0}),
	)
	scheduler := NewExpirationScheduler(repo, manager, clk, log, SchedulerConfig{
		SweepInterval:  5 * time.Second,
		SweepBatchSize: 100,
		ExpireTimeout:  time.Second,
	})
	manager.SetScheduler(scheduler)

	return &fixture{
		clock:     clk,
		pool:      pool,
		repo:      repo,
		notifier:  notifier,
		manager:   manager,
		scheduler: scheduler,
	}
}

func (f *fixture) provision(t *testing.T, ticketTypeID, eventID string, total int) {
	t.Helper()
	_, err := f.pool.Provision(context.Background(), ticketTypeID, eventID, total)
	require.NoError(t, err)
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.scheduler.Start(context.Background()))
	t.Cleanup(f.scheduler.Stop)
}

func (f *fixture) available(t *testing.T, ticketTypeID string) int {
	t.Helper()
	snap, err := f.pool.Query(context.Background(), ticketTypeID)
	require.NoError(t, err)
	return snap.Available
}

func (f *fixture) status(t *testing.T, holdID string) Status {
	t.Helper()
	hold, err := f.manager.GetHold(context.Background(), holdID)
	require.NoError(t, err)
	return hold.Status
}

func (f *fixture) create(t *testing.T, ticketTypeID string, quantity, seconds int) *Hold {
	t.Helper()
	hold, err := f.manager.CreateHold(context.Background(), CreateHoldInput{
		EventID:             "ev-1",
		TicketTypeID:        ticketTypeID,
		Quantity:            quantity,
		UserID:              "user-1",
		HoldDurationSeconds: seconds,
	})
	require.NoError(t, err)
	return hold
}

// requireBalanced checks available + active + confirmed == total for the event's ticket type
func (f *fixture) requireBalanced(t *testing.T, ticketTypeID string) {
	t.Helper()
	snap, err := f.pool.Query(context.Background(), ticketTypeID)
	require.NoError(t, err)

	holds, err := f.repo.FindByEvent(context.Background(), snap.EventID, nil)
	require.NoError(t, err)

	held := 0
	for _, h := range holds {
		if h.TicketTypeID == ticketTypeID && (h.Status == StatusActive || h.Status == StatusConfirmed) {
			held += h.Quantity
		}
	}
	require.Equal(t, snap.Total, snap.Available+held, "available=%d held=%d", snap.Available, held)
}

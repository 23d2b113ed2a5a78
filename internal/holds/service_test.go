package holds

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketholds/internal/inventory"
	"ticketholds/internal/notifications"
)

func TestManager_ConfirmAndExpireScenario(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 100)
	f.provision(t, "tt-2", "ev-1", 100)
	f.start(t)
	ctx := context.Background()

	hold := f.create(t, "tt-1", 10, 5)
	assert.Equal(t, StatusActive, hold.Status)
	assert.Equal(t, 90, f.available(t, "tt-1"))
	assert.Equal(t, testStart.Add(5*time.Second), hold.ExpiresAt)

	confirmed, err := f.manager.ConfirmHold(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, 90, f.available(t, "tt-1"))

	_, err = f.manager.ConfirmHold(ctx, hold.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	short := f.create(t, "tt-2", 20, 1)
	assert.Equal(t, 80, f.available(t, "tt-2"))

	f.clock.Advance(2 * time.Second)

	assert.Equal(t, StatusExpired, f.status(t, short.ID))
	assert.Equal(t, 100, f.available(t, "tt-2"))
	assert.Equal(t, 90, f.available(t, "tt-1"))
	assert.Equal(t, StatusConfirmed, f.status(t, hold.ID))

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notifications.ReleaseEvent{
		EventID:      "ev-1",
		TicketTypeID: "tt-2",
		Quantity:     20,
		Timestamp:    testStart.Add(2 * time.Second),
		HoldID:       short.ID,
		Reason:       notifications.ReasonExpired,
	}, events[0])
}

func TestManager_CreateHoldRejectsInsufficientInventory(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 5)
	ctx := context.Background()

	_, err := f.manager.CreateHold(ctx, CreateHoldInput{
		EventID: "ev-1", TicketTypeID: "tt-1", Quantity: 6, UserID: "u", HoldDurationSeconds: 10,
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientInventory)
	assert.Equal(t, 5, f.available(t, "tt-1"))

	holds, err := f.manager.ListHoldsByEvent(ctx, "ev-1", nil)
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestManager_CreateHoldValidation(t *testing.T) {
	valid := CreateHoldInput{EventID: "ev-1", TicketTypeID: "tt-1", Quantity: 1, UserID: "u", HoldDurationSeconds: 30}

	tests := []struct {
		name   string
		mutate func(in *CreateHoldInput)
	}{
		{name: "zero_quantity", mutate: func(in *CreateHoldInput) { in.Quantity = 0 }},
		{name: "negative_quantity", mutate: func(in *CreateHoldInput) { in.Quantity = -3 }},
		{name: "zero_duration", mutate: func(in *CreateHoldInput) { in.HoldDurationSeconds = 0 }},
		{name: "duration_above_maximum", mutate: func(in *CreateHoldInput) { in.HoldDurationSeconds = 31 }},
		{name: "missing_event", mutate: func(in *CreateHoldInput) { in.EventID = "" }},
		{name: "missing_ticket_type", mutate: func(in *CreateHoldInput) { in.TicketTypeID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provision(t, "tt-1", "ev-1", 10)

			in := valid
			tt.mutate(&in)
			_, err := f.manager.CreateHold(context.Background(), in)

			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 10, f.available(t, "tt-1"))
		})
	}
}

func TestManager_CreateHoldAtMaximumDuration(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)

	hold := f.create(t, "tt-1", 1, 30)
	assert.Equal(t, testStart.Add(30*time.Second), hold.ExpiresAt)
	assert.True(t, hold.ExpiresAt.After(hold.CreatedAt))
}

func TestManager_CreateHoldChecksTicketTypeOwnership(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-other", 10)

	_, err := f.manager.CreateHold(context.Background(), CreateHoldInput{
		EventID: "ev-1", TicketTypeID: "tt-1", Quantity: 1, HoldDurationSeconds: 10,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 10, f.available(t, "tt-1"))
}

func TestManager_CreateHoldUnknownTicketType(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateHold(context.Background(), CreateHoldInput{
		EventID: "ev-1", TicketTypeID: "missing", Quantity: 1, HoldDurationSeconds: 10,
	})
	assert.ErrorIs(t, err, inventory.ErrTicketTypeNotFound)
}

func TestManager_CreateHoldRollsBackWhenPersistenceFails(t *testing.T) {
	repo := &faultyRepository{Repository: NewMemoryRepository(), createFailures: -1}
	f := newFixtureWithRepo(t, repo)
	f.provision(t, "tt-1", "ev-1", 10)

	_, err := f.manager.CreateHold(context.Background(), CreateHoldInput{
		EventID: "ev-1", TicketTypeID: "tt-1", Quantity: 4, HoldDurationSeconds: 10,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 10, f.available(t, "tt-1"))
}

func TestManager_CreateHoldRetriesTransientStoreFailure(t *testing.T) {
	repo := &faultyRepository{Repository: NewMemoryRepository(), createFailures: 1}
	f := newFixtureWithRepo(t, repo)
	f.provision(t, "tt-1", "ev-1", 10)

	hold := f.create(t, "tt-1", 4, 10)
	assert.Equal(t, 6, f.available(t, "tt-1"))
	assert.Equal(t, StatusActive, f.status(t, hold.ID))
}

func TestManager_CancelHoldReleasesAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)
	f.start(t)
	ctx := context.Background()

	hold := f.create(t, "tt-1", 3, 10)
	assert.Equal(t, 1, f.scheduler.PendingTimers())

	require.NoError(t, f.manager.CancelHold(ctx, hold.ID))
	assert.Equal(t, StatusCancelled, f.status(t, hold.ID))
	assert.Equal(t, 10, f.available(t, "tt-1"))
	assert.Equal(t, 0, f.scheduler.PendingTimers())

	assert.ErrorIs(t, f.manager.CancelHold(ctx, hold.ID), ErrInvalidStateTransition)
	assert.Equal(t, 10, f.available(t, "tt-1"))

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notifications.ReasonCancelled, events[0].Reason)
	assert.Equal(t, 3, events[0].Quantity)
}

func TestManager_NotifierFailureDoesNotAffectCancel(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = notifications.ErrQueueFull
	f.provision(t, "tt-1", "ev-1", 10)

	hold := f.create(t, "tt-1", 3, 10)
	require.NoError(t, f.manager.CancelHold(context.Background(), hold.ID))
	assert.Equal(t, 10, f.available(t, "tt-1"))
	assert.Equal(t, StatusCancelled, f.status(t, hold.ID))
}

func TestManager_UnknownHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.GetHold(ctx, "missing")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	_, err = f.manager.ConfirmHold(ctx, "missing")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.ErrorIs(t, f.manager.CancelHold(ctx, "missing"), ErrHoldNotFound)
	assert.NoError(t, f.manager.TryExpire(ctx, "missing"))
}

func TestManager_TryExpireIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)
	ctx := context.Background()

	hold := f.create(t, "tt-1", 4, 1)
	f.clock.Advance(time.Second)

	require.NoError(t, f.manager.TryExpire(ctx, hold.ID))
	require.NoError(t, f.manager.TryExpire(ctx, hold.ID))

	assert.Equal(t, StatusExpired, f.status(t, hold.ID))
	assert.Equal(t, 10, f.available(t, "tt-1"))
	assert.Len(t, f.notifier.Events(), 1)
}

func TestManager_TryExpireBeforeDeadlineRearmsTimer(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)
	f.start(t)
	ctx := context.Background()

	hold := f.create(t, "tt-1", 4, 10)
	f.scheduler.Cancel(hold.ID)
	require.Equal(t, 0, f.scheduler.PendingTimers())

	require.NoError(t, f.manager.TryExpire(ctx, hold.ID))
	assert.Equal(t, StatusActive, f.status(t, hold.ID))
	assert.Equal(t, 6, f.available(t, "tt-1"))
	assert.Equal(t, 1, f.scheduler.PendingTimers())
}

func TestManager_ConfirmAfterDeadlineExpiresHold(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)
	ctx := context.Background()

	hold := f.create(t, "tt-1", 4, 2)
	f.clock.Advance(2 * time.Second)

	_, err := f.manager.ConfirmHold(ctx, hold.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StatusExpired, f.status(t, hold.ID))
	assert.Equal(t, 10, f.available(t, "tt-1"))

	assert.ErrorIs(t, f.manager.CancelHold(ctx, hold.ID), ErrInvalidStateTransition)
	assert.Equal(t, 10, f.available(t, "tt-1"))
	assert.Len(t, f.notifier.Events(), 1)
}

func TestManager_ListHoldsByEvent(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 10)
	ctx := context.Background()

	first := f.create(t, "tt-1", 1, 10)
	f.clock.Advance(time.Millisecond)
	second := f.create(t, "tt-1", 2, 10)
	_, err := f.manager.ConfirmHold(ctx, first.ID)
	require.NoError(t, err)

	all, err := f.manager.ListHoldsByEvent(ctx, "ev-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	active := StatusActive
	onlyActive, err := f.manager.ListHoldsByEvent(ctx, "ev-1", &active)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, second.ID, onlyActive[0].ID)

	none, err := f.manager.ListHoldsByEvent(ctx, "ev-unknown", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestManager_ConcurrentTransitionsTerminalizeOnce(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 300)
	ctx := context.Background()

	const n = 50
	holds := make([]*Hold, n)
	for i := range holds {
		holds[i] = f.create(t, "tt-1", 1+i%3, 30)
	}

	var confirmed, cancelled atomic.Int64
	var wg sync.WaitGroup
	for _, h := range holds {
		id := h.ID
		wg.Add(4)
		go func() {
			defer wg.Done()
			if _, err := f.manager.ConfirmHold(ctx, id); err == nil {
				confirmed.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
			}
		}()
		go func() {
			defer wg.Done()
			if err := f.manager.CancelHold(ctx, id); err == nil {
				cancelled.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
			}
		}()
		for j := 0; j < 2; j++ {
			go func() {
				defer wg.Done()
				assert.NoError(t, f.manager.TryExpire(ctx, id))
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, int64(n), confirmed.Load()+cancelled.Load())
	assert.Len(t, f.notifier.Events(), int(cancelled.Load()))
	f.requireBalanced(t, "tt-1")
}

func TestManager_ConcurrentExpireAndCancelReleaseOnce(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 100)
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.create(t, "tt-1", 5, 1).ID
	}
	require.Equal(t, 0, f.available(t, "tt-1"))
	f.clock.Advance(time.Second)

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.manager.TryExpire(ctx, id))
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.ErrorIs(t, f.manager.CancelHold(ctx, id), ErrInvalidStateTransition)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, f.available(t, "tt-1"))
	assert.Len(t, f.notifier.Events(), n)
	for _, id := range ids {
		assert.Equal(t, StatusExpired, f.status(t, id))
	}
}

func TestManager_ConcurrentCreatesNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "tt-1", "ev-1", 40)
	ctx := context.Background()

	var created atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.manager.CreateHold(ctx, CreateHoldInput{
				EventID:             "ev-1",
				TicketTypeID:        "tt-1",
				Quantity:            1 + i%2,
				UserID:              fmt.Sprintf("user-%d", i),
				HoldDurationSeconds: 10,
			})
			if err == nil {
				created.Add(1)
			} else {
				assert.ErrorIs(t, err, inventory.ErrInsufficientInventory)
			}
		}(i)
	}
	wg.Wait()

	assert.Positive(t, created.Load())
	f.requireBalanced(t, "tt-1")
}

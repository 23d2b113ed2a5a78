package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketholds/internal/inventory"
	"ticketholds/internal/notifications"
	"ticketholds/internal/shared/clock"
	"ticketholds/pkg/logger"
	"ticketholds/pkg/retry"
)

const defaultMaxHoldDuration = 30 * time.Second

// Scheduler arms and disarms per-hold expiration timers. Both calls are
// best effort; the periodic sweep expires holds whose timer was lost.
type Scheduler interface {
	Schedule(holdID string, expiresAt time.Time)
	Cancel(holdID string)
}

type noopScheduler struct{}

func (noopScheduler) Schedule(string, time.Time) {}
func (noopScheduler) Cancel(string)              {}

// CreateHoldInput carries the parameters of a reservation request
type CreateHoldInput struct {
	EventID             string
	TicketTypeID        string
	Quantity            int
	UserID              string
	HoldDurationSeconds int
}

// Manager is the hold state machine. It is the only component that mutates
// both inventory and hold records, and it keeps them consistent.
type Manager struct {
	inventory inventory.Pool
	repo      Repository
	notifier  notifications.Notifier
	scheduler Scheduler
	clock     clock.Clock
	logger    *logger.Logger

	maxHoldDuration time.Duration
	retryPolicy     retry.Policy
}

type ManagerOption func(*Manager)

// WithMaxHoldDuration sets the authoritative upper bound for hold lifetimes
func WithMaxHoldDuration(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.maxHoldDuration = d
		}
	}
}

// WithRetryPolicy sets how store and inventory calls are retried
func WithRetryPolicy(p retry.Policy) ManagerOption {
	return func(m *Manager) {
		m.retryPolicy = p
	}
}

func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a hold manager. notifier may be nil.
func NewManager(pool inventory.Pool, repo Repository, notifier notifications.Notifier, opts ...ManagerOption) *Manager {
	m := &Manager{
		inventory:       pool,
		repo:            repo,
		notifier:        notifier,
		scheduler:       noopScheduler{},
		clock:           clock.NewSystem(),
		logger:          logger.GetDefault(),
		maxHoldDuration: defaultMaxHoldDuration,
		retryPolicy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetScheduler injects the expiration scheduler. The scheduler depends on
// the manager, so it is wired after construction.
func (m *Manager) SetScheduler(s Scheduler) {
	if s == nil {
		s = noopScheduler{}
	}
	m.scheduler = s
}

// MaxHoldDuration returns the configured upper bound
func (m *Manager) MaxHoldDuration() time.Duration {
	return m.maxHoldDuration
}

// now truncates to microseconds so timestamps survive a Postgres round trip unchanged
func (m *Manager) now() time.Time {
	return m.clock.Now().UTC().Truncate(time.Microsecond)
}

func (m *Manager) validate(in CreateHoldInput) error {
	if in.EventID == "" {
		return fmt.Errorf("%w: eventId is required", ErrInvalidArgument)
	}
	if in.TicketTypeID == "" {
		return fmt.Errorf("%w: ticketTypeId is required", ErrInvalidArgument)
	}
	if in.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	}
	if in.HoldDurationSeconds <= 0 {
		return fmt.Errorf("%w: holdDurationSeconds must be positive", ErrInvalidArgument)
	}
	if time.Duration(in.HoldDurationSeconds)*time.Second > m.maxHoldDuration {
		return fmt.Errorf("%w: holdDurationSeconds must not exceed %d", ErrInvalidArgument, int(m.maxHoldDuration/time.Second))
	}
	return nil
}

// CreateHold reserves inventory and records an active hold. If the record
// cannot be persisted the reservation is released again.
func (m *Manager) CreateHold(ctx context.Context, in CreateHoldInput) (*Hold, error) {
	if err := m.validate(in); err != nil {
		return nil, err
	}

	var snapshot inventory.Snapshot
	err := retry.Do(ctx, m.retryPolicy, isPermanentInventoryError, func(ctx context.Context) error {
		var err error
		snapshot, err = m.inventory.Query(ctx, in.TicketTypeID)
		return err
	})
	if err != nil {
		return nil, inventoryError("query inventory", err)
	}
	if snapshot.EventID != "" && snapshot.EventID != in.EventID {
		return nil, fmt.Errorf("%w: ticket type %s does not belong to event %s", ErrInvalidArgument, in.TicketTypeID, in.EventID)
	}

	err = retry.Do(ctx, m.retryPolicy, isPermanentInventoryError, func(ctx context.Context) error {
		return m.inventory.Reserve(ctx, in.TicketTypeID, in.Quantity)
	})
	if err != nil {
		return nil, inventoryError("reserve inventory", err)
	}

	now := m.now()
	hold := &Hold{
		ID:           uuid.NewString(),
		EventID:      in.EventID,
		TicketTypeID: in.TicketTypeID,
		Quantity:     in.Quantity,
		UserID:       in.UserID,
		Status:       StatusActive,
		ExpiresAt:    now.Add(time.Duration(in.HoldDurationSeconds) * time.Second),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	attempts := 0
	err = retry.Do(ctx, m.retryPolicy, isPermanentStoreError, func(ctx context.Context) error {
		attempts++
		err := m.repo.Create(ctx, hold)
		// A retried insert may collide with an earlier attempt that committed
		if errors.Is(err, ErrDuplicateHold) && attempts > 1 {
			return nil
		}
		return err
	})
	if err != nil {
		m.rollbackReservation(ctx, hold, err)
		return nil, fmt.Errorf("%w: persist hold: %v", ErrStoreUnavailable, err)
	}

	m.scheduler.Schedule(hold.ID, hold.ExpiresAt)
	m.logger.LogHoldCreated(ctx, hold.ID, hold.TicketTypeID, hold.Quantity, hold.ExpiresAt)
	return hold, nil
}

func (m *Manager) rollbackReservation(ctx context.Context, hold *Hold, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := retry.Do(ctx, m.retryPolicy, isPermanentInventoryError, func(ctx context.Context) error {
		return m.inventory.Release(ctx, hold.TicketTypeID, hold.Quantity)
	})
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"ticket_type_id": hold.TicketTypeID,
			"quantity":       hold.Quantity,
			"cause":          cause.Error(),
		}).WithError(err).ErrorContext(ctx, "Failed to roll back reservation")
		return
	}
	m.logger.LogInventoryReleased(ctx, hold.TicketTypeID, hold.Quantity, "rollback")
}

// GetHold returns the hold with the given id
func (m *Manager) GetHold(ctx context.Context, id string) (*Hold, error) {
	return m.load(ctx, id)
}

// ListHoldsByEvent returns the event's holds, optionally filtered by status
func (m *Manager) ListHoldsByEvent(ctx context.Context, eventID string, status *Status) ([]Hold, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: eventId is required", ErrInvalidArgument)
	}

	var holds []Hold
	err := retry.Do(ctx, m.retryPolicy, isPermanentStoreError, func(ctx context.Context) error {
		var err error
		holds, err = m.repo.FindByEvent(ctx, eventID, status)
		return err
	})
	if err != nil {
		return nil, storeError("list holds", err)
	}
	if holds == nil {
		holds = []Hold{}
	}
	return holds, nil
}

// ConfirmHold marks an active hold as sold. Inventory is unchanged; the
// units reserved at creation stay reserved.
func (m *Manager) ConfirmHold(ctx context.Context, id string) (*Hold, error) {
	hold, err := m.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}

	at := m.now()
	won, err := m.transition(ctx, hold, StatusConfirmed, at)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: hold %s", ErrInvalidStateTransition, id)
	}

	m.scheduler.Cancel(id)
	hold.Status = StatusConfirmed
	hold.UpdatedAt = at
	return hold, nil
}

// CancelHold releases an active hold's units back to the pool
func (m *Manager) CancelHold(ctx context.Context, id string) error {
	hold, err := m.loadActive(ctx, id)
	if err != nil {
		return err
	}

	at := m.now()
	won, err := m.transition(ctx, hold, StatusCancelled, at)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("%w: hold %s", ErrInvalidStateTransition, id)
	}

	m.scheduler.Cancel(id)
	m.release(ctx, hold, notifications.ReasonCancelled, at)
	return nil
}

// TryExpire expires the hold if it is still active and past its deadline.
// Every non-error outcome, including losing a race, returns nil, so
// duplicate timer and sweep calls are safe.
func (m *Manager) TryExpire(ctx context.Context, id string) error {
	hold, err := m.load(ctx, id)
	if errors.Is(err, ErrHoldNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if hold.Status.IsTerminal() {
		m.scheduler.Cancel(id)
		return nil
	}

	if !hold.IsExpiredAt(m.clock.Now()) {
		m.scheduler.Schedule(id, hold.ExpiresAt)
		return nil
	}

	return m.expire(ctx, hold)
}

func (m *Manager) expire(ctx context.Context, hold *Hold) error {
	at := m.now()
	won, err := m.transition(ctx, hold, StatusExpired, at)
	if err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			return nil
		}
		return err
	}
	if !won {
		return nil
	}

	m.scheduler.Cancel(hold.ID)
	m.release(ctx, hold, notifications.ReasonExpired, at)
	return nil
}

func (m *Manager) load(ctx context.Context, id string) (*Hold, error) {
	if id == "" {
		return nil, ErrHoldNotFound
	}

	var hold *Hold
	err := retry.Do(ctx, m.retryPolicy, isPermanentStoreError, func(ctx context.Context) error {
		var err error
		hold, err = m.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError("load hold", err)
	}
	return hold, nil
}

// loadActive loads a hold for a user-facing transition. A hold past its
// deadline is expired first and then reported as no longer active.
func (m *Manager) loadActive(ctx context.Context, id string) (*Hold, error) {
	hold, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if hold.Status != StatusActive {
		return nil, fmt.Errorf("%w: hold %s is %s", ErrInvalidStateTransition, id, hold.Status)
	}
	if hold.IsExpiredAt(m.clock.Now()) {
		if err := m.expire(ctx, hold); err != nil {
			m.logger.WithError(err).WarnContext(ctx, "Lazy expiration failed", "hold_id", id)
		}
		return nil, fmt.Errorf("%w: hold %s has expired", ErrInvalidStateTransition, id)
	}
	return hold, nil
}

// transition flips the hold from active to target. It reports false when
// another caller already terminalized the hold.
func (m *Manager) transition(ctx context.Context, hold *Hold, target Status, at time.Time) (bool, error) {
	attempts := 0
	err := retry.Do(ctx, m.retryPolicy, isPermanentStoreError, func(ctx context.Context) error {
		attempts++
		return m.repo.Transition(ctx, hold.ID, StatusActive, target, at)
	})

	switch {
	case err == nil:
		m.logger.LogHoldTransition(ctx, hold.ID, string(StatusActive), string(target))
		return true, nil
	case errors.Is(err, ErrTransitionConflict):
		// An earlier attempt may have committed before its response was lost
		if attempts > 1 {
			if current, ferr := m.repo.FindByID(ctx, hold.ID); ferr == nil &&
				current.Status == target && current.UpdatedAt.Equal(at) {
				m.logger.LogHoldTransition(ctx, hold.ID, string(StatusActive), string(target))
				return true, nil
			}
		}
		m.logger.LogTransitionLost(ctx, hold.ID, string(target))
		return false, nil
	default:
		return false, storeError("transition hold", err)
	}
}

// release returns the hold's units to the pool and emits a release event.
// The transition has already committed, so failures are logged, not returned.
func (m *Manager) release(ctx context.Context, hold *Hold, reason notifications.ReleaseReason, at time.Time) {
	ctx = context.WithoutCancel(ctx)

	err := retry.Do(ctx, m.retryPolicy, isPermanentInventoryError, func(ctx context.Context) error {
		return m.inventory.Release(ctx, hold.TicketTypeID, hold.Quantity)
	})
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"hold_id":        hold.ID,
			"ticket_type_id": hold.TicketTypeID,
			"quantity":       hold.Quantity,
			"reason":         string(reason),
		}).WithError(err).ErrorContext(ctx, "Failed to release inventory")
		return
	}
	m.logger.LogInventoryReleased(ctx, hold.TicketTypeID, hold.Quantity, string(reason))

	if m.notifier == nil {
		return
	}
	event := notifications.ReleaseEvent{
		EventID:      hold.EventID,
		TicketTypeID: hold.TicketTypeID,
		Quantity:     hold.Quantity,
		Timestamp:    at,
		HoldID:       hold.ID,
		Reason:       reason,
	}
	if err := m.notifier.NotifyReleased(ctx, event); err != nil {
		m.logger.WithError(err).WarnContext(ctx, "Release notification not queued", "hold_id", hold.ID)
	}
}

func isPermanentInventoryError(err error) bool {
	return errors.Is(err, inventory.ErrInsufficientInventory) ||
		errors.Is(err, inventory.ErrTicketTypeNotFound) ||
		errors.Is(err, inventory.ErrInvalidQuantity) ||
		errors.Is(err, inventory.ErrAlreadyProvisioned)
}

func inventoryError(op string, err error) error {
	if isPermanentInventoryError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func storeError(op string, err error) error {
	if isPermanentStoreError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

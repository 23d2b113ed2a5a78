package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketholds/internal/shared/constants"
	"ticketholds/pkg/cache"
)

var (
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still in progress")
	ErrIdempotencyConflict   = errors.New("idempotency key was reused with a different request")
)

const (
	idempotencyPending  = "pending"
	idempotencyComplete = "complete"
)

type idempotencyRecord struct {
	State               string        `json:"state"`
	UserID              string        `json:"userId"`
	EventID             string        `json:"eventId"`
	TicketTypeID        string        `json:"ticketTypeId"`
	Quantity            int           `json:"quantity"`
	HoldDurationSeconds int           `json:"holdDurationSeconds"`
	Hold                *HoldResponse `json:"hold,omitempty"`
}

func newIdempotencyRecord(state string, in CreateHoldInput) idempotencyRecord {
	return idempotencyRecord{
		State:               state,
		UserID:              in.UserID,
		EventID:             in.EventID,
		TicketTypeID:        in.TicketTypeID,
		Quantity:            in.Quantity,
		HoldDurationSeconds: in.HoldDurationSeconds,
	}
}

func (r idempotencyRecord) matches(in CreateHoldInput) bool {
	return r.UserID == in.UserID &&
		r.EventID == in.EventID &&
		r.TicketTypeID == in.TicketTypeID &&
		r.Quantity == in.Quantity &&
		r.HoldDurationSeconds == in.HoldDurationSeconds
}

// IdempotencyStore remembers the outcome of create requests that carry an
// Idempotency-Key so a retried request returns the original hold.
type IdempotencyStore struct {
	cache      cache.Service
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewIdempotencyStore(c cache.Service, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = constants.TTL_IDEMPOTENCY_DEFAULT
	}
	return &IdempotencyStore{cache: c, ttl: ttl, pendingTTL: constants.TTL_IDEMPOTENCY_PENDING}
}

// Begin claims the key for the hold owner. It returns the stored hold when
// the request was already completed, or claimed=true when the caller should
// proceed.
func (s *IdempotencyStore) Begin(ctx context.Context, key string, in CreateHoldInput) (*HoldResponse, bool, error) {
	cacheKey := constants.BuildHoldIdempotencyKey(in.UserID, key)
	pending := newIdempotencyRecord(idempotencyPending, in)

	claimed, err := s.cache.SetNX(ctx, cacheKey, pending, s.pendingTTL)
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return nil, true, nil
	}

	var existing idempotencyRecord
	if err := s.cache.Get(ctx, cacheKey, &existing); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, ErrIdempotencyInProgress
		}
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if !existing.matches(in) {
		return nil, false, ErrIdempotencyConflict
	}
	if existing.State != idempotencyComplete || existing.Hold == nil {
		return nil, false, ErrIdempotencyInProgress
	}
	return existing.Hold, false, nil
}

// Complete stores the created hold under the key
func (s *IdempotencyStore) Complete(ctx context.Context, key string, in CreateHoldInput, hold HoldResponse) error {
	record := newIdempotencyRecord(idempotencyComplete, in)
	record.Hold = &hold
	return s.cache.Set(ctx, constants.BuildHoldIdempotencyKey(in.UserID, key), record, s.ttl)
}

// Abandon frees the key after a failed create so the client may retry
func (s *IdempotencyStore) Abandon(ctx context.Context, key string, in CreateHoldInput) error {
	return s.cache.Delete(ctx, constants.BuildHoldIdempotencyKey(in.UserID, key))
}

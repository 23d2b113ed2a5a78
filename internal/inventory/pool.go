package inventory

import (
	"context"
	"errors"
)

var (
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrTicketTypeNotFound    = errors.New("ticket type not found")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrAlreadyProvisioned    = errors.New("ticket type already provisioned")
)

// Pool is the single source of truth for how many units of a ticket type
// remain unreserved. Reserve and Release are atomic with respect to each
// other; available never leaves [0, total].
type Pool interface {
	// Reserve decrements available by quantity if at least quantity units remain.
	Reserve(ctx context.Context, ticketTypeID string, quantity int) error

	// Release increments available by quantity, clamped to total. A clamped
	// release is logged, not reported as an error.
	Release(ctx context.Context, ticketTypeID string, quantity int) error

	// Query returns the current counters.
	Query(ctx context.Context, ticketTypeID string) (Snapshot, error)

	// Provision creates the counters for a new ticket type with available = total.
	Provision(ctx context.Context, ticketTypeID, eventID string, total int) (Snapshot, error)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

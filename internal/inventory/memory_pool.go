package inventory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"ticketholds/pkg/logger"
)

// counter holds one ticket type's available units. total and eventID are
// immutable after provisioning; available only changes through CAS.
type counter struct {
	eventID   string
	total     int64
	available atomic.Int64
}

// memoryPool keeps counters in process memory. The map lock only guards
// provisioning; reserve and release contend on a single ticket type's
// atomic counter.
type memoryPool struct {
	mu       sync.RWMutex
	counters map[string]*counter
	logger   *logger.Logger
}

// NewMemoryPool returns an in-process Pool
func NewMemoryPool(log *logger.Logger) Pool {
	if log == nil {
		log = logger.GetDefault()
	}
	return &memoryPool{
		counters: make(map[string]*counter),
		logger:   log,
	}
}

func (p *memoryPool) lookup(ticketTypeID string) (*counter, error) {
	p.mu.RLock()
	c, ok := p.counters[ticketTypeID]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	}
	return c, nil
}

func (p *memoryPool) Reserve(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c, err := p.lookup(ticketTypeID)
	if err != nil {
		return err
	}

	q := int64(quantity)
	for {
		current := c.available.Load()
		if current < q {
			return ErrInsufficientInventory
		}
		if c.available.CompareAndSwap(current, current-q) {
			return nil
		}
	}
}

func (p *memoryPool) Release(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c, err := p.lookup(ticketTypeID)
	if err != nil {
		return err
	}

	q := int64(quantity)
	for {
		current := c.available.Load()
		next := current + q
		clamped := next > c.total
		if clamped {
			next = c.total
		}
		if c.available.CompareAndSwap(current, next) {
			if clamped {
				p.logger.LogReleaseClamped(ctx, ticketTypeID, quantity, int(c.total))
			}
			return nil
		}
	}
}

func (p *memoryPool) Query(ctx context.Context, ticketTypeID string) (Snapshot, error) {
	c, err := p.lookup(ticketTypeID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		TicketTypeID: ticketTypeID,
		EventID:      c.eventID,
		Total:        int(c.total),
		Available:    int(c.available.Load()),
	}, nil
}

func (p *memoryPool) Provision(ctx context.Context, ticketTypeID, eventID string, total int) (Snapshot, error) {
	if total < 0 {
		return Snapshot{}, ErrInvalidQuantity
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.counters[ticketTypeID]; exists {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrAlreadyProvisioned, ticketTypeID)
	}

	c := &counter{eventID: eventID, total: int64(total)}
	c.available.Store(int64(total))
	p.counters[ticketTypeID] = c

	return Snapshot{TicketTypeID: ticketTypeID, EventID: eventID, Total: total, Available: total}, nil
}

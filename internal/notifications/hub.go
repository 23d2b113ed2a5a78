package notifications

import (
	"context"
	"log/slog"
	"sync"

	"ticketholds/pkg/logger"
)

// Hub fans release events out to in-process subscribers such as SSE
// connections. A slow subscriber loses events rather than blocking others.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan ReleaseEvent
	nextID      uint64
	buffer      int
	closed      bool
	logger      *logger.Logger
}

func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Hub{
		subscribers: make(map[uint64]chan ReleaseEvent),
		buffer:      buffer,
		logger:      log,
	}
}

// Subscribe registers a subscriber. The returned func unsubscribes and is
// safe to call more than once.
func (h *Hub) Subscribe() (<-chan ReleaseEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ReleaseEvent, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) Name() string {
	return "hub"
}

func (h *Hub) Publish(ctx context.Context, event ReleaseEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		h.logger.Debug("Release event dropped for slow subscribers",
			slog.Int("dropped", dropped),
			slog.String("ticket_type_id", event.TicketTypeID),
		)
	}
	return nil
}

// Close disconnects every subscriber
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
	return nil
}

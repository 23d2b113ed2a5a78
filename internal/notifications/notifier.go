package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ticketholds/pkg/logger"
	"ticketholds/pkg/retry"
)

var (
	ErrQueueFull        = errors.New("release notification queue is full")
	ErrDispatcherClosed = errors.New("release dispatcher is closed")
)

// Notifier receives release events from the hold lifecycle. Implementations
// must not block the caller on delivery.
type Notifier interface {
	NotifyReleased(ctx context.Context, event ReleaseEvent) error
}

// Sink is one delivery target for release events
type Sink interface {
	Name() string
	Publish(ctx context.Context, event ReleaseEvent) error
	Close() error
}

// DispatcherConfig controls queueing and per-sink delivery
type DispatcherConfig struct {
	BufferSize     int
	PublishTimeout time.Duration
	Retry          retry.Policy
}

// Dispatcher queues release events and delivers them to every sink from a
// single background worker. A failing sink is retried, then logged; it never
// affects the other sinks or the caller.
type Dispatcher struct {
	sinks  []Sink
	queue  chan ReleaseEvent
	config DispatcherConfig
	logger *logger.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// NewDispatcher creates a dispatcher for the given sinks
func NewDispatcher(cfg DispatcherConfig, log *logger.Logger, sinks ...Sink) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &Dispatcher{
		sinks:  sinks,
		queue:  make(chan ReleaseEvent, cfg.BufferSize),
		config: cfg,
		logger: log,
		done:   make(chan struct{}),
	}
}

// NotifyReleased enqueues the event without waiting for delivery
func (d *Dispatcher) NotifyReleased(ctx context.Context, event ReleaseEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery worker
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return
	}
	d.started = true

	go d.run()

	sinkNames := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		sinkNames = append(sinkNames, s.Name())
	}
	d.logger.Info("Release dispatcher started", slog.Any("sinks", sinkNames), slog.Int("buffer", d.config.BufferSize))
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event ReleaseEvent) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.PublishTimeout)
		err := retry.Do(ctx, d.config.Retry, nil, func(ctx context.Context) error {
			return sink.Publish(ctx, event)
		})
		cancel()

		if err != nil {
			d.logger.Warn("Release notification delivery failed",
				slog.String("sink", sink.Name()),
				slog.String("hold_id", event.HoldID),
				slog.String("ticket_type_id", event.TicketTypeID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Stop rejects new events, drains the queue, then closes every sink. It
// returns ctx.Err() if draining outlives ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if started {
		select {
		case <-d.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package holds

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticketholds/internal/shared/clock"
	"ticketholds/pkg/logger"
)

// Expirer is the entry point both timers and sweeps converge on
type Expirer interface {
	TryExpire(ctx context.Context, holdID string) error
}

// SchedulerConfig controls sweep cadence and per-call limits
type SchedulerConfig struct {
	SweepInterval  time.Duration
	SweepBatchSize int
	ExpireTimeout  time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SweepInterval:  5 * time.Second,
		SweepBatchSize: 500,
		ExpireTimeout:  5 * time.Second,
	}
}

type timerEntry struct {
	timer clock.Timer
	seq   uint64
}

// ExpirationScheduler drives active holds to expired. The periodic sweep
// over the store is authoritative and also the restart recovery path;
// per-hold timers only make expiry land close to the deadline. Nothing is
// persisted here.
type ExpirationScheduler struct {
	repo    Repository
	expirer Expirer
	clock   clock.Clock
	logger  *logger.Logger
	config  SchedulerConfig

	mu         sync.Mutex
	timers     map[string]timerEntry
	seq        uint64
	sweepTimer clock.Timer
	started    bool
	stopped    bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewExpirationScheduler(repo Repository, expirer Expirer, clk clock.Clock, log *logger.Logger, cfg SchedulerConfig) *ExpirationScheduler {
	defaults := DefaultSchedulerConfig()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaults.SweepBatchSize
	}
	if cfg.ExpireTimeout <= 0 {
		cfg.ExpireTimeout = defaults.ExpireTimeout
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &ExpirationScheduler{
		repo:    repo,
		expirer: expirer,
		clock:   clk,
		logger:  log,
		config:  cfg,
		timers:  make(map[string]timerEntry),
	}
}

// Start runs one recovery sweep, then begins accepting timers and sweeping
// periodically. Holds that expired while the process was down are resolved
// before Start returns.
func (s *ExpirationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("expiration scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	if err := s.Sweep(ctx); err != nil {
		return fmt.Errorf("recovery sweep failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.started = true
	s.armSweep()

	s.logger.Info("Expiration scheduler started",
		slog.Duration("sweep_interval", s.config.SweepInterval),
		slog.Int("sweep_batch_size", s.config.SweepBatchSize),
	)
	return nil
}

// Stop disarms every timer and waits for in-flight expirations
func (s *ExpirationScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.sweepTimer != nil {
		s.sweepTimer.Stop()
	}
	for id, entry := range s.timers {
		entry.timer.Stop()
		delete(s.timers, id)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Expiration scheduler stopped")
}

// Schedule arms (or re-arms) the hold's timer. Calls before Start or after
// Stop are ignored; the sweep covers those holds.
func (s *ExpirationScheduler) Schedule(holdID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return
	}

	if existing, ok := s.timers[holdID]; ok {
		existing.timer.Stop()
	}

	s.seq++
	seq := s.seq
	delay := expiresAt.Sub(s.clock.Now())
	s.timers[holdID] = timerEntry{
		timer: s.clock.AfterFunc(delay, func() { s.fire(holdID, seq) }),
		seq:   seq,
	}
}

// Cancel disarms the hold's timer if one is pending
func (s *ExpirationScheduler) Cancel(holdID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.timers[holdID]; ok {
		entry.timer.Stop()
		delete(s.timers, holdID)
	}
}

// PendingTimers returns the number of armed hold timers
func (s *ExpirationScheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *ExpirationScheduler) fire(holdID string, seq uint64) {
	s.mu.Lock()
	entry, ok := s.timers[holdID]
	if !ok || entry.seq != seq || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, holdID)
	s.wg.Add(1)
	base := s.ctx
	s.mu.Unlock()

	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(base, s.config.ExpireTimeout)
	defer cancel()

	if err := s.expirer.TryExpire(ctx, holdID); err != nil {
		s.logger.Warn("Hold timer expiration failed, sweep will retry",
			slog.String("hold_id", holdID),
			slog.String("error", err.Error()),
		)
	}
}

// armSweep must be called with s.mu held
func (s *ExpirationScheduler) armSweep() {
	s.sweepTimer = s.clock.AfterFunc(s.config.SweepInterval, s.periodicSweep)
}

func (s *ExpirationScheduler) periodicSweep() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	base := s.ctx
	s.mu.Unlock()

	if err := s.Sweep(base); err != nil {
		s.logger.Error("Expiration sweep failed", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	if !s.stopped {
		s.armSweep()
	}
	s.mu.Unlock()
	s.wg.Done()
}

// Sweep expires every active hold whose deadline has passed, in batches.
// It returns an error only when the store cannot be queried; individual
// expiration failures are logged and left for the next sweep.
func (s *ExpirationScheduler) Sweep(ctx context.Context) error {
	now := s.clock.Now()
	expired := 0

	for {
		holds, err := s.repo.FindExpiredActive(ctx, now, s.config.SweepBatchSize)
		if err != nil {
			return fmt.Errorf("failed to find expired holds: %w", err)
		}

		failures := 0
		for _, hold := range holds {
			expireCtx, cancel := context.WithTimeout(ctx, s.config.ExpireTimeout)
			err := s.expirer.TryExpire(expireCtx, hold.ID)
			cancel()
			if err != nil {
				failures++
				s.logger.Warn("Sweep could not expire hold",
					slog.String("hold_id", hold.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			expired++
		}

		// A failed hold would be returned again; leave it for the next sweep
		if len(holds) < s.config.SweepBatchSize || failures > 0 || ctx.Err() != nil {
			break
		}
	}

	if expired > 0 {
		s.logger.Debug("Expiration sweep finished", slog.Int("processed", expired))
	}
	return nil
}

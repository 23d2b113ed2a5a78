package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ticketholds/api/routes"
	"ticketholds/internal/holds"
	"ticketholds/internal/inventory"
	"ticketholds/internal/notifications"
	"ticketholds/internal/shared/clock"
	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/database"
	"ticketholds/pkg/cache"
	"ticketholds/pkg/logger"
	"ticketholds/pkg/retry"
)

// services is everything with a lifecycle that main starts and stops
type services struct {
	pool        inventory.Pool
	repo        holds.Repository
	manager     *holds.Manager
	scheduler   *holds.ExpirationScheduler
	dispatcher  *notifications.Dispatcher
	hub         *notifications.Hub
	idempotency *holds.IdempotencyStore
}

func (s *services) routes() routes.Services {
	return routes.Services{
		Pool:        s.pool,
		Manager:     s.manager,
		Hub:         s.hub,
		Idempotency: s.idempotency,
	}
}

func buildServices(cfg *config.Config, db *database.DB, log *logger.Logger) (*services, error) {
	pool, err := buildPool(cfg, db, log)
	if err != nil {
		return nil, err
	}

	repo, err := buildRepository(cfg, db)
	if err != nil {
		return nil, err
	}

	hub := notifications.NewHub(cfg.Notifier.SubscriberBuffer, log)
	sinks := []notifications.Sink{hub}

	if db.GetRedis() != nil {
		sinks = append(sinks, notifications.NewRedisSink(db.GetRedis(), cfg.Notifier.RedisChannel))
	}

	if cfg.Kafka.Enabled {
		kafkaCfg := notifications.DefaultKafkaSinkConfig()
		kafkaCfg.Brokers = cfg.Kafka.Brokers
		kafkaCfg.Topic = cfg.Kafka.ReleaseTopic
		kafkaCfg.RetryMax = cfg.Kafka.RetryMax
		kafkaCfg.Timeout = cfg.Kafka.Timeout

		kafkaSink, err := notifications.NewKafkaSink(kafkaCfg, log)
		if err != nil {
			// Releases still reach the hub and Redis
			log.Error("Kafka release sink unavailable", slog.Any("error", err))
		} else {
			sinks = append(sinks, kafkaSink)
		}
	}

	dispatcher := notifications.NewDispatcher(notifications.DispatcherConfig{
		BufferSize:     cfg.Notifier.BufferSize,
		PublishTimeout: cfg.Notifier.PublishTimeout,
		Retry: retry.Policy{
			Attempts: cfg.Notifier.DeliveryRetries,
			Backoff:  cfg.Notifier.DeliveryBackoff,
		},
	}, log, sinks...)

	clk := clock.NewSystem()
	manager := holds.NewManager(pool, repo, dispatcher,
		holds.WithMaxHoldDuration(cfg.Holds.MaxDuration),
		holds.WithRetryPolicy(retry.Policy{
			Attempts: cfg.Holds.StoreRetries,
			Backoff:  cfg.Holds.StoreRetryBackoff,
		}),
		holds.WithClock(clk),
		holds.WithLogger(log),
	)

	scheduler := holds.NewExpirationScheduler(repo, manager, clk, log, holds.SchedulerConfig{
		SweepInterval:  cfg.Holds.SweepInterval,
		SweepBatchSize: cfg.Holds.SweepBatchSize,
		ExpireTimeout:  cfg.Holds.ExpireTimeout,
	})
	manager.SetScheduler(scheduler)

	var idempotencyCache cache.Service
	if db.GetRedis() != nil {
		idempotencyCache = cache.NewService(db.GetRedis())
	} else {
		idempotencyCache = cache.NewMemoryService()
	}

	return &services{
		pool:        pool,
		repo:        repo,
		manager:     manager,
		scheduler:   scheduler,
		dispatcher:  dispatcher,
		hub:         hub,
		idempotency: holds.NewIdempotencyStore(idempotencyCache, cfg.Redis.IdempotencyTTL),
	}, nil
}

func buildPool(cfg *config.Config, db *database.DB, log *logger.Logger) (inventory.Pool, error) {
	switch cfg.Holds.InventoryBackend {
	case config.BackendMemory:
		return inventory.NewMemoryPool(log), nil

	case config.BackendRedis:
		if db.GetRedis() == nil {
			return nil, fmt.Errorf("redis inventory backend needs a Redis connection")
		}
		pool := inventory.NewRedisPool(db.GetRedis(), log)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pool.PreloadScripts(ctx); err != nil {
			// Scripts load on first use
			log.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
		} else {
			log.Info("Redis Lua scripts preloaded for inventory operations")
		}
		return pool, nil

	case config.BackendPostgres:
		if db.GetPostgreSQL() == nil {
			return nil, fmt.Errorf("postgres inventory backend needs a database connection")
		}
		return inventory.NewPostgresPool(db.GetPostgreSQL(), log), nil
	}

	return nil, fmt.Errorf("unsupported inventory backend %q", cfg.Holds.InventoryBackend)
}

func buildRepository(cfg *config.Config, db *database.DB) (holds.Repository, error) {
	switch cfg.Holds.StoreBackend {
	case config.BackendMemory:
		return holds.NewMemoryRepository(), nil

	case config.BackendPostgres:
		if db.GetPostgreSQL() == nil {
			return nil, fmt.Errorf("postgres hold store needs a database connection")
		}
		return holds.NewRepository(db.GetPostgreSQL()), nil
	}

	return nil, fmt.Errorf("unsupported hold store backend %q", cfg.Holds.StoreBackend)
}

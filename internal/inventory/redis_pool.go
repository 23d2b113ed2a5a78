package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"ticketholds/internal/shared/constants"
	"ticketholds/pkg/logger"
)

// Counters live in one hash per ticket type: event_id, total, available.
// Every mutation is a Lua script so the check and the write are a single
// Redis command.

var reserveScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

local available = tonumber(redis.call('HGET', key, 'available'))
if available < quantity then
	return 0
end

redis.call('HINCRBY', key, 'available', -quantity)
return 1
`)

var releaseScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return {-1, 0}
end

local total = tonumber(redis.call('HGET', key, 'total'))
local available = tonumber(redis.call('HGET', key, 'available'))
local next = available + quantity
local clamped = 0
if next > total then
	next = total
	clamped = 1
end

redis.call('HSET', key, 'available', next)
return {clamped, total}
`)

var provisionScript = redis.NewScript(`
local key = KEYS[1]

if redis.call('EXISTS', key) == 1 then
	return 0
end

redis.call('HSET', key, 'event_id', ARGV[1], 'total', ARGV[2], 'available', ARGV[2])
return 1
`)

// RedisPool keeps counters in Redis hashes
type RedisPool struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisPool returns a Pool backed by Redis
func NewRedisPool(client *redis.Client, log *logger.Logger) *RedisPool {
	if log == nil {
		log = logger.GetDefault()
	}
	return &RedisPool{client: client, logger: log}
}

func inventoryKey(ticketTypeID string) string {
	return constants.BuildInventoryKey(ticketTypeID)
}

// PreloadScripts loads the Lua scripts so the first calls can use EVALSHA
func (r *RedisPool) PreloadScripts(ctx context.Context) error {
	for _, script := range []*redis.Script{reserveScript, releaseScript, provisionScript} {
		if err := script.Load(ctx, r.client).Err(); err != nil {
			return fmt.Errorf("failed to load inventory script: %w", err)
		}
	}
	return nil
}

func (r *RedisPool) Reserve(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	result, err := reserveScript.Run(ctx, r.client, []string{inventoryKey(ticketTypeID)}, quantity).Int()
	if err != nil {
		return fmt.Errorf("reserve inventory: %w", err)
	}

	switch result {
	case 1:
		return nil
	case 0:
		return ErrInsufficientInventory
	default:
		return fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	}
}

func (r *RedisPool) Release(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	result, err := releaseScript.Run(ctx, r.client, []string{inventoryKey(ticketTypeID)}, quantity).Int64Slice()
	if err != nil {
		return fmt.Errorf("release inventory: %w", err)
	}
	if len(result) != 2 {
		return fmt.Errorf("unexpected result format from release script")
	}

	switch result[0] {
	case -1:
		return fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	case 1:
		r.logger.LogReleaseClamped(ctx, ticketTypeID, quantity, int(result[1]))
	}
	return nil
}

func (r *RedisPool) Query(ctx context.Context, ticketTypeID string) (Snapshot, error) {
	fields, err := r.client.HGetAll(ctx, inventoryKey(ticketTypeID)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("query inventory: %w", err)
	}
	if len(fields) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	}

	total, err := strconv.Atoi(fields["total"])
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid total for %s: %w", ticketTypeID, err)
	}
	available, err := strconv.Atoi(fields["available"])
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid available for %s: %w", ticketTypeID, err)
	}

	return Snapshot{
		TicketTypeID: ticketTypeID,
		EventID:      fields["event_id"],
		Total:        total,
		Available:    available,
	}, nil
}

func (r *RedisPool) Provision(ctx context.Context, ticketTypeID, eventID string, total int) (Snapshot, error) {
	if total < 0 {
		return Snapshot{}, ErrInvalidQuantity
	}

	created, err := provisionScript.Run(ctx, r.client, []string{inventoryKey(ticketTypeID)}, eventID, total).Int()
	if err != nil {
		return Snapshot{}, fmt.Errorf("provision inventory: %w", err)
	}
	if created == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrAlreadyProvisioned, ticketTypeID)
	}

	return Snapshot{TicketTypeID: ticketTypeID, EventID: eventID, Total: total, Available: total}, nil
}

package notifications

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes release events on a Redis pub/sub channel so other
// service instances and listeners can react
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (r *RedisSink) Name() string {
	return "redis"
}

func (r *RedisSink) Publish(ctx context.Context, event ReleaseEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal release event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish release event: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the database layer
func (r *RedisSink) Close() error {
	return nil
}

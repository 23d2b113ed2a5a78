package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Holds.MaxDuration)
	assert.Equal(t, 5*time.Second, cfg.Holds.SweepInterval)
	assert.Equal(t, 500, cfg.Holds.SweepBatchSize)
	assert.Equal(t, 3, cfg.Holds.StoreRetries)
	assert.Equal(t, BackendPostgres, cfg.Holds.StoreBackend)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.NeedsPostgres())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HOLD_MAX_DURATION_SECONDS", "120")
	t.Setenv("HOLD_SWEEP_INTERVAL", "250ms")
	t.Setenv("HOLD_STORE_BACKEND", "MEMORY")
	t.Setenv("INVENTORY_BACKEND", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.Holds.MaxDuration)
	assert.Equal(t, 250*time.Millisecond, cfg.Holds.SweepInterval)
	assert.Equal(t, BackendMemory, cfg.Holds.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.Holds.InventoryBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.JWT.AuthRequired)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.False(t, cfg.NeedsPostgres())
	require.NoError(t, cfg.Validate())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("HOLD_SWEEP_BATCH_SIZE", "many")
	t.Setenv("HOLD_EXPIRE_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 500, cfg.Holds.SweepBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Holds.ExpireTimeout)
}

func TestValidate_PersistentBackendPairs(t *testing.T) {
	cfg := Load()
	cfg.Redis.Enabled = true
	cfg.Holds.InventoryBackend = BackendRedis
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown_store", func(c *Config) { c.Holds.StoreBackend = "cassandra" }},
		{"redis_store_unsupported", func(c *Config) { c.Holds.StoreBackend = BackendRedis }},
		{"unknown_inventory", func(c *Config) { c.Holds.InventoryBackend = "etcd" }},
		{"redis_inventory_without_redis", func(c *Config) {
			c.Holds.InventoryBackend = BackendRedis
			c.Redis.Enabled = false
		}},
		{"memory_inventory_with_durable_store", func(c *Config) { c.Holds.InventoryBackend = BackendMemory }},
		{"memory_store_with_durable_inventory", func(c *Config) { c.Holds.StoreBackend = BackendMemory }},
		{"memory_store_with_redis_inventory", func(c *Config) {
			c.Holds.StoreBackend = BackendMemory
			c.Holds.InventoryBackend = BackendRedis
			c.Redis.Enabled = true
		}},
		{"zero_max_duration", func(c *Config) { c.Holds.MaxDuration = 0 }},
		{"zero_sweep_interval", func(c *Config) { c.Holds.SweepInterval = 0 }},
		{"kafka_without_brokers", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable per component
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all configuration for the hold service
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Kafka configuration
	Kafka KafkaConfig

	// Hold lifecycle
	Holds HoldConfig

	// Release notifier
	Notifier NotifierConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	IdempotencyTTL time.Duration
}

// KafkaConfig holds the release topic producer configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	ReleaseTopic string
	RetryMax     int
	Timeout      time.Duration
}

// HoldConfig holds reservation and expiration settings
type HoldConfig struct {
	// MaxDuration is the authoritative upper bound for a hold's lifetime
	MaxDuration time.Duration

	SweepInterval  time.Duration
	SweepBatchSize int
	ExpireTimeout  time.Duration

	StoreRetries      int
	StoreRetryBackoff time.Duration

	StoreBackend     string
	InventoryBackend string
}

// NotifierConfig holds release notification delivery settings
type NotifierConfig struct {
	BufferSize       int
	SubscriberBuffer int
	RedisChannel     string
	PublishTimeout   time.Duration
	DeliveryRetries  int
	DeliveryBackoff  time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AuthRequired bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	HoldRequests    int           `json:"hold_requests"`
	ReadRequests    int           `json:"read_requests"`
	AdminRequests   int           `json:"admin_requests"`
	HealthRequests  int           `json:"health_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 0), // 0: release stream connections are long-lived
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ticketholds"),
			User:     getEnv("DB_USER", "ticketholds"),
			Password: getEnv("DB_PASSWORD", "ticketholds"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Enabled:        getBoolEnv("REDIS_ENABLED", true),
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getIntEnv("REDIS_DB", 0),
			IdempotencyTTL: getDurationEnv("REDIS_IDEMPOTENCY_TTL", 10*time.Minute),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled:      getBoolEnv("KAFKA_ENABLED", false),
			Brokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			ReleaseTopic: getEnv("KAFKA_RELEASE_TOPIC", "ticket-releases"),
			RetryMax:     getIntEnv("KAFKA_RETRY_MAX", 3),
			Timeout:      getDurationEnv("KAFKA_TIMEOUT", 10*time.Second),
		},

		// Hold lifecycle
		Holds: HoldConfig{
			MaxDuration:       getDurationEnvSeconds("HOLD_MAX_DURATION_SECONDS", 30*time.Second),
			SweepInterval:     getDurationEnv("HOLD_SWEEP_INTERVAL", 5*time.Second),
			SweepBatchSize:    getIntEnv("HOLD_SWEEP_BATCH_SIZE", 500),
			ExpireTimeout:     getDurationEnv("HOLD_EXPIRE_TIMEOUT", 5*time.Second),
			StoreRetries:      getIntEnv("HOLD_STORE_RETRIES", 3),
			StoreRetryBackoff: getDurationEnv("HOLD_STORE_RETRY_BACKOFF", 50*time.Millisecond),
			StoreBackend:      strings.ToLower(getEnv("HOLD_STORE_BACKEND", BackendPostgres)),
			InventoryBackend:  strings.ToLower(getEnv("INVENTORY_BACKEND", BackendPostgres)),
		},

		// Release notifier
		Notifier: NotifierConfig{
			BufferSize:       getIntEnv("NOTIFIER_BUFFER_SIZE", 1024),
			SubscriberBuffer: getIntEnv("NOTIFIER_SUBSCRIBER_BUFFER", 64),
			RedisChannel:     getEnv("NOTIFIER_REDIS_CHANNEL", "ticketholds:releases"),
			PublishTimeout:   getDurationEnv("NOTIFIER_PUBLISH_TIMEOUT", 5*time.Second),
			DeliveryRetries:  getIntEnv("NOTIFIER_DELIVERY_RETRIES", 3),
			DeliveryBackoff:  getDurationEnv("NOTIFIER_DELIVERY_BACKOFF", 200*time.Millisecond),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			AuthRequired: getBoolEnv("AUTH_REQUIRED", false),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			HoldRequests:    getIntEnv("RATE_LIMIT_HOLD_REQUESTS", 20),
			ReadRequests:    getIntEnv("RATE_LIMIT_READ_REQUESTS", 120),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 600),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// NeedsPostgres reports whether any component is backed by PostgreSQL
func (c *Config) NeedsPostgres() bool {
	return c.Holds.StoreBackend == BackendPostgres || c.Holds.InventoryBackend == BackendPostgres
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// Validate checks combinations of settings that cannot work together
func (c *Config) Validate() error {
	switch c.Holds.StoreBackend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unsupported HOLD_STORE_BACKEND %q", c.Holds.StoreBackend)
	}

	switch c.Holds.InventoryBackend {
	case BackendPostgres, BackendMemory:
	case BackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("INVENTORY_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unsupported INVENTORY_BACKEND %q", c.Holds.InventoryBackend)
	}

	// Active holds and the units they reserve must survive a restart together
	storeInMemory := c.Holds.StoreBackend == BackendMemory
	inventoryInMemory := c.Holds.InventoryBackend == BackendMemory
	if storeInMemory != inventoryInMemory {
		return fmt.Errorf("HOLD_STORE_BACKEND=%s cannot be combined with INVENTORY_BACKEND=%s: both must be memory or both persistent",
			c.Holds.StoreBackend, c.Holds.InventoryBackend)
	}

	if c.Holds.MaxDuration <= 0 {
		return fmt.Errorf("HOLD_MAX_DURATION_SECONDS must be positive")
	}
	if c.Holds.SweepInterval <= 0 {
		return fmt.Errorf("HOLD_SWEEP_INTERVAL must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_ENABLED=true requires KAFKA_BROKERS")
	}

	return nil
}

package constants

import "time"

// Redis Key Configuration
// Pattern: ticketholds:{module}:{purpose}:{identifier}

// ================== TTL DURATIONS ==================

const (
	TTL_IDEMPOTENCY_DEFAULT = 24 * time.Hour // replayed create responses
	TTL_IDEMPOTENCY_PENDING = 30 * time.Second
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "ticketholds"
)

// ================== INVENTORY MODULE ==================

const (
	CACHE_KEY_INVENTORY = CACHE_PREFIX + ":inventory:ticket_type:" // + ticket-type-id (hash)
)

// ================== HOLDS MODULE ==================

const (
	CACHE_KEY_HOLD_IDEMPOTENCY = CACHE_PREFIX + ":holds:idempotency:" // + user-id:idempotency-key
)

// ================== RATE LIMIT MODULE ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":rate_limit:" // + route-type:client-id
)

// ================== HELPER FUNCTIONS ==================

func BuildInventoryKey(ticketTypeID string) string {
	return CACHE_KEY_INVENTORY + ticketTypeID
}

func BuildHoldIdempotencyKey(userID, key string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return CACHE_KEY_HOLD_IDEMPOTENCY + userID + ":" + key
}

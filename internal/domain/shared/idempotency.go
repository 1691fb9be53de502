package shared

import (
	"context"
	"time"
)

// IdempotencyRecord is the stored outcome of a request carrying an Idempotency-Key.
// A record with Completed=false marks a request still in flight.
type IdempotencyRecord struct {
	RequestHash string `json:"request_hash"`
	Completed   bool   `json:"completed"`
	StatusCode  int    `json:"status_code,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyStore remembers mutating requests so a retried request replays the first response
// instead of posting a second payment or a second conversion.
type IdempotencyStore interface {
	// Reserve claims key for the given request hash. When the key is new it returns (nil, true, nil).
	// When the key already exists it returns the stored record and false.
	Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (*IdempotencyRecord, bool, error)

	// Complete stores the response for a reserved key
	Complete(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) error

	// Release drops a reservation whose request failed so the client may retry
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key is remembered. Default: 24 hours
	TTL time.Duration
	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

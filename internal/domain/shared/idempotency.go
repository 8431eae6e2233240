package shared

import (
	"context"
	"time"
)

// StoredResponse is the response captured for an idempotency key
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	// RequestHash is the hex SHA-256 of the request body that produced the response
	RequestHash string `json:"request_hash,omitempty"`
}

// IdempotencyStore remembers write requests by client-supplied key so a
// retried request replays the first response instead of posting twice.
type IdempotencyStore interface {
	// Reserve claims the key for an in-flight request.
	// Returns false if the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the response for a reserved key
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Lookup returns the stored response, or nil if the key is still in flight or unknown
	Lookup(ctx context.Context, key string) (*StoredResponse, error)

	// Release drops a reservation whose request failed so it can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key and its response are remembered
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

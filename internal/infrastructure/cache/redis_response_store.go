package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "dinar:idempotency:"
	pendingMarker    = "pending"
)

// RedisResponseStore implements shared.IdempotencyStore on Redis so every
// API instance sees the same keys. A key holds the pending marker while its
// request runs and the JSON-encoded response once it completed.
type RedisResponseStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisResponseStore connects to Redis and verifies the connection
func NewRedisResponseStore(ctx context.Context, addr, password string, db int) (*RedisResponseStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisResponseStoreWithClient(client, ""), nil
}

// NewRedisResponseStoreWithClient wraps an existing client
func NewRedisResponseStoreWithClient(client *redis.Client, keyPrefix string) *RedisResponseStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResponseStore{client: client, keyPrefix: keyPrefix}
}

// Reserve claims the key with SETNX so only one request per key proceeds
func (s *RedisResponseStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete replaces the pending marker with the response
func (s *RedisResponseStore) Complete(ctx context.Context, key string, resp shared.StoredResponse, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode stored response: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Lookup returns the stored response, or nil while the key is pending or unknown
func (s *RedisResponseStore) Lookup(ctx context.Context, key string) (*shared.StoredResponse, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if string(raw) == pendingMarker {
		return nil, nil
	}
	var resp shared.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return &resp, nil
}

// releaseScript deletes the key only while it still holds the pending marker
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release drops a pending reservation. Completed responses are kept.
func (s *RedisResponseStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, pendingMarker).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisResponseStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisResponseStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisResponseStore)(nil)

package cache

import (
	"context"
	"fmt"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the store named by idempotency.store. When Redis
// is configured but unreachable the process falls back to memory outside
// production and fails in production.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Idempotency.Store == "memory" {
		log.Info("using in-memory idempotency store")
		return NewMemoryResponseStore(), nil
	}

	store, err := NewRedisResponseStore(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err == nil {
		log.Info("using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewMemoryResponseStore(), nil
}

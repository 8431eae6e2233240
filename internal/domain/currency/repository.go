package currency

import (
	"context"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
)

// ExchangeRateRepository persists the append-only rate table. There is no
// update or delete.
type ExchangeRateRepository interface {
	// Append inserts a new rate row
	Append(ctx context.Context, rate *ExchangeRate) error
	// FindEffectiveAt returns the rate in force at instant, or a NO_RATE_AVAILABLE error
	FindEffectiveAt(ctx context.Context, instant time.Time) (*ExchangeRate, error)
	// FindAll lists rates, newest effective date first
	FindAll(ctx context.Context, filter shared.Filter) ([]ExchangeRate, int64, error)
}

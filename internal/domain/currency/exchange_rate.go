package currency

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is a USD→IQD conversion factor effective from a point in time.
// Rates are appended, never edited: a correction is a newer row.
type ExchangeRate struct {
	ID           uuid.UUID
	UsdToIqdRate decimal.Decimal
	EffectiveAt  time.Time
	RecordedAt   time.Time
	Notes        string
}

// NewExchangeRate validates and creates a rate row
func NewExchangeRate(rate decimal.Decimal, effectiveAt, recordedAt time.Time) (*ExchangeRate, error) {
	if !rate.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidRate,
			"exchange rate must be greater than zero, got %s", rate.String())
	}
	if effectiveAt.IsZero() {
		return nil, shared.NewValidationError(shared.CodeMissingField, "effective date is required")
	}
	return &ExchangeRate{
		ID:           uuid.New(),
		UsdToIqdRate: rate,
		EffectiveAt:  effectiveAt.UTC(),
		RecordedAt:   recordedAt.UTC(),
	}, nil
}

// NoRateAvailable builds the conflict error for an instant that predates every rate
func NoRateAvailable(instant time.Time) *shared.DomainError {
	return shared.NewConflictError(shared.CodeNoRateAvailable,
		"no exchange rate is effective at %s", instant.UTC().Format(time.RFC3339)).
		WithDetail("instant", instant.UTC().Format(time.RFC3339))
}

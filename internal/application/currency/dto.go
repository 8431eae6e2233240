package currency

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddRateRequest represents a request to append an exchange rate
type AddRateRequest struct {
	UsdToIqdRate decimal.Decimal
	EffectiveAt  time.Time
	Notes        string
}

// ExchangeRateResponse represents an exchange rate in API responses
type ExchangeRateResponse struct {
	ID            uuid.UUID       `json:"id"`
	UsdToIqdRate  decimal.Decimal `json:"usd_to_iqd_rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	RecordedAt    time.Time       `json:"recorded_at"`
	Notes         string          `json:"notes,omitempty"`
	Formatted     string          `json:"formatted"`
}

// ListFilter represents pagination for the rate history
type ListFilter struct {
	Page     int
	PageSize int
}

// ConvertRequest asks for a display estimate of an amount
type ConvertRequest struct {
	Amount decimal.Decimal
	From   valueobject.Currency
}

// ConvertResponse is a display-only estimate at the current rate
type ConvertResponse struct {
	Amount        decimal.Decimal      `json:"amount"`
	From          valueobject.Currency `json:"from"`
	Formatted     string               `json:"formatted"`
	Converted     valueobject.Estimate `json:"converted"`
	RateID        uuid.UUID            `json:"rate_id"`
	EffectiveDate time.Time            `json:"effective_date"`
	Estimate      bool                 `json:"estimate"`
}

// ToExchangeRateResponse converts a domain ExchangeRate to ExchangeRateResponse
func ToExchangeRateResponse(r *currency.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ID:            r.ID,
		UsdToIqdRate:  r.UsdToIqdRate,
		EffectiveDate: r.EffectiveAt,
		RecordedAt:    r.RecordedAt,
		Notes:         r.Notes,
		Formatted:     "1 USD = " + valueobject.FormatAmount(r.UsdToIqdRate, valueobject.IQD),
	}
}

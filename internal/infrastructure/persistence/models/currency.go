package models

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateModel is one row of the append-only rate table
type ExchangeRateModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	UsdToIqdRate decimal.Decimal `gorm:"column:usd_to_iqd_rate;type:decimal(18,4);not null"`
	EffectiveAt  time.Time       `gorm:"not null;index:idx_rate_effective,priority:1"`
	RecordedAt   time.Time       `gorm:"not null;index:idx_rate_effective,priority:2"`
	Notes        string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate
func (m *ExchangeRateModel) ToDomain() *currency.ExchangeRate {
	return &currency.ExchangeRate{
		ID:           m.ID,
		UsdToIqdRate: m.UsdToIqdRate,
		EffectiveAt:  m.EffectiveAt.UTC(),
		RecordedAt:   m.RecordedAt.UTC(),
		Notes:        m.Notes,
	}
}

// ExchangeRateModelFromDomain creates a persistence model from a domain ExchangeRate
func ExchangeRateModelFromDomain(r *currency.ExchangeRate) *ExchangeRateModel {
	return &ExchangeRateModel{
		ID:           r.ID,
		UsdToIqdRate: r.UsdToIqdRate,
		EffectiveAt:  r.EffectiveAt.UTC(),
		RecordedAt:   r.RecordedAt.UTC(),
		Notes:        r.Notes,
	}
}

package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Table is the exchange-rate table: an append-only history of rates with
// step-function lookup by instant.
type Table struct {
	repo ExchangeRateRepository
	now  func() time.Time
}

// NewTable creates a Table over a repository
func NewTable(repo ExchangeRateRepository) *Table {
	return &Table{repo: repo, now: time.Now}
}

// WithClock replaces the clock used for RecordedAt and CurrentRate
func (t *Table) WithClock(now func() time.Time) *Table {
	t.now = now
	return t
}

// AddRate appends a rate effective from effectiveAt
func (t *Table) AddRate(ctx context.Context, usdToIqdRate decimal.Decimal, effectiveAt time.Time, notes string) (*ExchangeRate, error) {
	rate, err := NewExchangeRate(usdToIqdRate, effectiveAt, t.now())
	if err != nil {
		return nil, err
	}
	rate.Notes = notes
	if err := t.repo.Append(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// RateAt returns the rate in force at instant
func (t *Table) RateAt(ctx context.Context, instant time.Time) (*ExchangeRate, error) {
	return t.repo.FindEffectiveAt(ctx, instant.UTC())
}

// CurrentRate returns the rate in force now
func (t *Table) CurrentRate(ctx context.Context) (*ExchangeRate, error) {
	return t.RateAt(ctx, t.now())
}

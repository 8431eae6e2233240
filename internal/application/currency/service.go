package currency

import (
	"context"
	"time"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Service handles exchange-rate operations
type Service struct {
	repo   currency.ExchangeRateRepository
	table  *currency.Table
	logger *zap.Logger
}

// NewService creates a new exchange-rate Service
func NewService(repo currency.ExchangeRateRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, table: currency.NewTable(repo), logger: log}
}

// WithClock replaces the clock used for recorded times and the current rate
func (s *Service) WithClock(now func() time.Time) *Service {
	s.table.WithClock(now)
	return s
}

// AddRate appends a new rate. Earlier rates are never changed.
func (s *Service) AddRate(ctx context.Context, req AddRateRequest) (*ExchangeRateResponse, error) {
	rate, err := s.table.AddRate(ctx, req.UsdToIqdRate, req.EffectiveAt, req.Notes)
	if err != nil {
		return nil, err
	}

	logger.FromContextOr(ctx, s.logger).Info("exchange rate added",
		zap.String("rate_id", rate.ID.String()),
		zap.String("usd_to_iqd_rate", rate.UsdToIqdRate.String()),
		zap.Time("effective_at", rate.EffectiveAt),
	)
	resp := ToExchangeRateResponse(rate)
	return &resp, nil
}

// RateAt returns the rate in force at instant
func (s *Service) RateAt(ctx context.Context, instant time.Time) (*ExchangeRateResponse, error) {
	rate, err := s.table.RateAt(ctx, instant)
	if err != nil {
		return nil, err
	}
	resp := ToExchangeRateResponse(rate)
	return &resp, nil
}

// CurrentRate returns the rate in force now
func (s *Service) CurrentRate(ctx context.Context) (*ExchangeRateResponse, error) {
	rate, err := s.table.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToExchangeRateResponse(rate)
	return &resp, nil
}

// List returns the rate history, newest effective date first
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ExchangeRateResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "effective_at",
		OrderDir: "desc",
	}
	rates, total, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		out[i] = ToExchangeRateResponse(&rates[i])
	}
	return out, total, nil
}

// Convert estimates an amount in the other currency at the current rate.
// The result is for display only and is never stored on a document.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	rate, err := s.table.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}

	var est valueobject.Estimate
	switch req.From {
	case valueobject.USD:
		est, err = valueobject.EstimateIQD(req.Amount, rate.UsdToIqdRate)
	case valueobject.IQD:
		est, err = valueobject.EstimateUSD(req.Amount, rate.UsdToIqdRate)
	default:
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown currency %q, use IQD or USD", req.From)
	}
	if err != nil {
		return nil, err
	}
	return &ConvertResponse{
		Amount:        req.Amount,
		From:          req.From,
		Formatted:     valueobject.FormatAmount(req.Amount, req.From),
		Converted:     est,
		RateID:        rate.ID,
		EffectiveDate: rate.EffectiveAt,
		Estimate:      true,
	}, nil
}

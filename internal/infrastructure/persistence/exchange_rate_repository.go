package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExchangeRateRepository implements currency.ExchangeRateRepository using GORM
type GormExchangeRateRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// Append inserts a new rate row
func (r *GormExchangeRateRepository) Append(ctx context.Context, rate *currency.ExchangeRate) error {
	return r.db.WithContext(ctx).Create(models.ExchangeRateModelFromDomain(rate)).Error
}

// FindEffectiveAt returns the row with the greatest effective_at not after
// instant, ties going to the latest recorded_at
func (r *GormExchangeRateRepository) FindEffectiveAt(ctx context.Context, instant time.Time) (*currency.ExchangeRate, error) {
	var model models.ExchangeRateModel
	err := r.db.WithContext(ctx).
		Where("effective_at <= ?", instant.UTC()).
		Order("effective_at DESC").
		Order("recorded_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, currency.NoRateAvailable(instant)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists rates, newest effective date first unless the filter says otherwise
func (r *GormExchangeRateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]currency.ExchangeRate, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExchangeRateModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExchangeRateModel
	if err := paginate(query, filter, ExchangeRateSortFields, "effective_at", "DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	rates := make([]currency.ExchangeRate, len(rows))
	for i := range rows {
		rates[i] = *rows[i].ToDomain()
	}
	return rates, total, nil
}

var _ currency.ExchangeRateRepository = (*GormExchangeRateRepository)(nil)

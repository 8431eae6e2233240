package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements partner.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("payment", id)
		}
		return nil, err
	}
	payment, err := model.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("payment %s has an invalid method: %w", id, err)
	}
	return payment, nil
}

// FindAll lists payments made with parties of a kind, optionally one party
func (r *GormPaymentRepository) FindAll(ctx context.Context, kind partner.PartyKind, partyID *uuid.UUID, filter shared.Filter) ([]partner.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("party_kind = ?", kind)
	if partyID != nil {
		query = query.Where("party_id = ?", *partyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := paginate(query, filter, PaymentSortFields, "payment_date", "DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]partner.Payment, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("payment %s has an invalid method: %w", rows[i].ID, err)
		}
		payments = append(payments, *p)
	}
	return payments, total, nil
}

// Save inserts or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *partner.Payment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.PaymentModelFromDomain(payment)).Error
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("payment", id)
	}
	return nil
}

// Ensure GormPaymentRepository implements the interface
var _ partner.PaymentRepository = (*GormPaymentRepository)(nil)

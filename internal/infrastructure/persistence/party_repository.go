package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartyRepository implements partner.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party by its ID
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("party", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDAndKind finds a party by ID, reporting a kind mismatch as not found
func (r *GormPartyRepository) FindByIDAndKind(ctx context.Context, id uuid.UUID, kind partner.PartyKind) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, kind).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(kind.String(), id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the parties of a kind matching the filter
func (r *GormPartyRepository) FindAll(ctx context.Context, kind partner.PartyKind, filter shared.Filter) ([]partner.Party, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PartyModel{}).Where("kind = ?", kind)

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PartyModel
	if err := paginate(query, filter, PartySortFields, "name", "ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	parties := make([]partner.Party, len(rows))
	for i := range rows {
		parties[i] = *rows[i].ToDomain()
	}
	return parties, total, nil
}

// Save inserts a new party
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	return r.db.WithContext(ctx).Create(models.PartyModelFromDomain(party)).Error
}

// SaveWithLock updates the party only if nobody wrote it since it was read
func (r *GormPartyRepository) SaveWithLock(ctx context.Context, party *partner.Party) error {
	model := models.PartyModelFromDomain(party)
	result := r.db.WithContext(ctx).
		Model(&models.PartyModel{}).
		Where("id = ? AND version = ?", party.ID, party.Version-1).
		Updates(map[string]any{
			"name":          model.Name,
			"phone":         model.Phone,
			"email":         model.Email,
			"address":       model.Address,
			"notes":         model.Notes,
			"credit_limit":  model.CreditLimit,
			"status":        model.Status,
			"balance":       model.Balance,
			"entry_seq":     model.EntrySeq,
			"last_entry_at": model.LastEntryAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyError("party", party.ID)
	}
	return nil
}

// Delete removes a party together with its ledger entries and payments
func (r *GormPartyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("party_id = ?", id).Delete(&models.LedgerEntryModel{}).Error; err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	if err := db.Where("party_id = ?", id).Delete(&models.PaymentModel{}).Error; err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	result := db.Delete(&models.PartyModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("party", id)
	}
	return nil
}

// Ensure GormPartyRepository implements the interface
var _ partner.PartyRepository = (*GormPartyRepository)(nil)

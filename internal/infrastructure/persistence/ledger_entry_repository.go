package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements partner.LedgerEntryRepository using GORM.
// Rows are only ever inserted.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *partner.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error
}

// FindLatest returns the entry with the highest sequence for a party, or nil
func (r *GormLedgerEntryRepository) FindLatest(ctx context.Context, partyID uuid.UUID) (*partner.LedgerEntry, error) {
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("seq DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPage reads one keyset page of a party's history. Entry dates never go
// backwards within a party, so ordering by seq is ordering by date.
func (r *GormLedgerEntryRepository) FindPage(ctx context.Context, partyID uuid.UUID, q partner.HistoryQuery, afterSeq int64, size int) ([]partner.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("party_id = ? AND seq > ?", partyID, afterSeq)

	if !q.Range.From.IsZero() {
		query = query.Where("entry_date >= ?", q.Range.From.UTC())
	}
	if !q.Range.To.IsZero() {
		query = query.Where("entry_date <= ?", q.Range.To.UTC())
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(description) LIKE ? OR LOWER(reference_number) LIKE ?", like, like)
	}

	var rows []models.LedgerEntryModel
	if err := query.Order("entry_date ASC").Order("seq ASC").Limit(size).Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]partner.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormLedgerEntryRepository implements the interface
var _ partner.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDocumentRepository implements trade.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a document of a kind with its lines
func (r *GormDocumentRepository) FindByID(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*trade.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ? AND kind = ?", id, kind).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(kind.String(), id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists documents of a kind matching the filter
func (r *GormDocumentRepository) FindAll(ctx context.Context, kind trade.DocumentKind, filter shared.Filter) ([]trade.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("kind = ?", kind)

	if v, ok := filter.Filters["party_id"].(uuid.UUID); ok && v != uuid.Nil {
		query = query.Where("party_id = ?", v)
	}
	if v, ok := filter.Filters["status"].(string); ok && v != "" {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["start_date"].(time.Time); ok && !v.IsZero() {
		query = query.Where("document_date >= ?", v.UTC())
	}
	if v, ok := filter.Filters["end_date"].(time.Time); ok && !v.IsZero() {
		query = query.Where("document_date <= ?", v.UTC())
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(notes) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DocumentModel
	if err := paginate(query.Preload("Items", preloadItems), filter, DocumentSortFields, "document_date", "DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	docs := make([]trade.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, total, nil
}

// Save inserts a new document with its lines
func (r *GormDocumentRepository) Save(ctx context.Context, doc *trade.Document) error {
	return r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(doc)).Error
}

// SaveWithLock updates the document header and replaces its lines, only if
// nobody wrote it since it was read
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *trade.Document) error {
	model := models.DocumentModelFromDomain(doc)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version-1).
		Updates(map[string]any{
			"party_id":      model.PartyID,
			"document_date": model.DocumentDate,
			"status":        model.Status,
			"total_iqd":     model.TotalIQD,
			"total_usd":     model.TotalUSD,
			"notes":         model.Notes,
			"completed_at":  model.CompletedAt,
			"cancelled_at":  model.CancelledAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyError(doc.Kind.String(), doc.ID)
	}

	if err := db.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
		return fmt.Errorf("replace document items: %w", err)
	}
	if len(model.Items) == 0 {
		return nil
	}
	if err := db.Create(&model.Items).Error; err != nil {
		return fmt.Errorf("replace document items: %w", err)
	}
	return nil
}

// Delete removes a document and its lines
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("document_id = ?", id).Delete(&models.DocumentItemModel{}).Error; err != nil {
		return fmt.Errorf("delete document items: %w", err)
	}
	result := db.Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("document", id)
	}
	return nil
}

// CountByParty counts documents that reference a party
func (r *GormDocumentRepository) CountByParty(ctx context.Context, partyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("party_id = ?", partyID).Count(&count).Error
	return count, err
}

// CountByProduct counts document lines that reference a product
func (r *GormDocumentRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DocumentItemModel{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// SummarizeByParty totals a party's completed and returned documents
func (r *GormDocumentRepository) SummarizeByParty(ctx context.Context, partyID uuid.UUID) (*trade.PartySummary, error) {
	var totals struct {
		DocumentCount int64
		TotalIQD      decimal.Decimal
		TotalUSD      decimal.Decimal
	}
	settled := []trade.DocumentStatus{trade.StatusCompleted, trade.StatusReturned}

	base := r.db.WithContext(ctx).Model(&models.DocumentModel{}).
		Where("party_id = ? AND status IN ?", partyID, settled)
	if err := base.Session(&gorm.Session{}).
		Select("COUNT(*) AS document_count, COALESCE(SUM(total_iqd), 0) AS total_iqd, COALESCE(SUM(total_usd), 0) AS total_usd").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	summary := &trade.PartySummary{
		DocumentCount: totals.DocumentCount,
		Total:         valueobject.NewMoneyValue(totals.TotalIQD, totals.TotalUSD),
	}
	if totals.DocumentCount == 0 {
		return summary, nil
	}

	var latest []models.DocumentModel
	if err := base.Session(&gorm.Session{}).
		Select("id", "document_date").
		Order("document_date DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return nil, err
	}
	if len(latest) == 1 {
		at := latest[0].DocumentDate.UTC()
		summary.LastDocumentAt = &at
	}
	return summary, nil
}

// GormReturnRepository implements trade.ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// FindByDocument lists the returns recorded against a document, oldest first
func (r *GormReturnRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]trade.Return, error) {
	var rows []models.ReturnModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_id = ?", documentID).
		Order("return_date ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	returns := make([]trade.Return, len(rows))
	for i := range rows {
		returns[i] = *rows[i].ToDomain()
	}
	return returns, nil
}

// Save inserts a return with its items
func (r *GormReturnRepository) Save(ctx context.Context, ret *trade.Return) error {
	return r.db.WithContext(ctx).Create(models.ReturnModelFromDomain(ret)).Error
}

// GormNumberSequence implements trade.NumberSequence by counting the numbers
// already issued under a prefix. Callers hold a transaction; the unique index
// on numbers rejects the loser of a race.
type GormNumberSequence struct {
	db *gorm.DB
}

// NewGormNumberSequence creates a new GormNumberSequence
func NewGormNumberSequence(db *gorm.DB) *GormNumberSequence {
	return &GormNumberSequence{db: db}
}

// NextSequence returns one more than the count of numbers starting with prefix
func (s *GormNumberSequence) NextSequence(ctx context.Context, series trade.NumberSeries, prefix string) (int64, error) {
	var model any = &models.DocumentModel{}
	if series == trade.SeriesReturn {
		model = &models.ReturnModel{}
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

var (
	_ trade.DocumentRepository = (*GormDocumentRepository)(nil)
	_ trade.ReturnRepository   = (*GormReturnRepository)(nil)
	_ trade.NumberSequence     = (*GormNumberSequence)(nil)
)

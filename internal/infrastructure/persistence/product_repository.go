package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements inventory.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds products by IDs; missing IDs are simply absent
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Product, error) {
	if len(ids) == 0 {
		return []inventory.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]inventory.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// ExistsBySKU reports whether a product other than exclude already uses sku
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string, exclude uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("sku = ?", strings.TrimSpace(sku))
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	return r.list(query, filter, "name")
}

// FindLowStock lists products with stock at or below threshold, lowest first
func (r *GormProductRepository) FindLowStock(ctx context.Context, threshold int64, filter shared.Filter) ([]inventory.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("current_stock <= ?", threshold)
	filter.OrderBy = "current_stock"
	filter.OrderDir = "asc"
	return r.list(query, filter, "current_stock")
}

func (r *GormProductRepository) list(query *gorm.DB, filter shared.Filter, defaultSort string) ([]inventory.Product, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields, defaultSort, "ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products := make([]inventory.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// Save inserts a new product
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error
}

// SaveWithLock updates the product only if nobody wrote it since it was read
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	model := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]any{
			"sku":              model.SKU,
			"name":             model.Name,
			"description":      model.Description,
			"price_iqd":        model.PriceIQD,
			"price_usd":        model.PriceUSD,
			"current_stock":    model.CurrentStock,
			"movement_seq":     model.MovementSeq,
			"last_movement_at": model.LastMovementAt,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyError("product", product.ID)
	}
	return nil
}

// Delete removes a product and its movement log
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.StockMovementModel{}).Error; err != nil {
		return fmt.Errorf("delete stock movements: %w", err)
	}
	result := db.Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", id)
	}
	return nil
}

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM.
// Rows are only ever inserted.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts a movement
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error
}

// FindByProduct lists a product's movements in sequence order
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("seq ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(min(filter.PageSize, maxPageSize))
	}
	var rows []models.StockMovementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, total, nil
}

var (
	_ inventory.ProductRepository       = (*GormProductRepository)(nil)
	_ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
)

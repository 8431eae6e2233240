package inventory

import (
	"context"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds products by IDs; missing IDs are simply absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// ExistsBySKU reports whether a product other than exclude uses sku
	ExistsBySKU(ctx context.Context, sku string, exclude uuid.UUID) (bool, error)

	// FindAll lists products
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// FindLowStock lists products with stock at or below threshold, lowest first
	FindLowStock(ctx context.Context, threshold int64, filter shared.Filter) ([]Product, int64, error)

	// Save inserts a new product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock updates a product only if the stored version is product.Version-1
	SaveWithLock(ctx context.Context, product *Product) error

	// Delete removes a product and its movement log
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository defines the interface for the movement log
type StockMovementRepository interface {
	// Append inserts a movement. Movements are never updated.
	Append(ctx context.Context, movement *StockMovement) error

	// FindByProduct lists a product's movements ascending by date then sequence
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
}

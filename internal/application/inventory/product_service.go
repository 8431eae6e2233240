package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/application/event"
	"github.com/dinarbooks/backend/internal/application/txn"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is used when no threshold is configured
const DefaultLowStockThreshold int64 = 10

// ProductService handles product and stock operations
type ProductService struct {
	products  inventory.ProductRepository
	movements inventory.StockMovementRepository
	txScope   txn.TransactionScope
	events    *event.Dispatcher
	logger    *zap.Logger
	threshold int64
	now       func() time.Time
}

// NewProductService creates a new ProductService
func NewProductService(
	products inventory.ProductRepository,
	movements inventory.StockMovementRepository,
	txScope txn.TransactionScope,
	events *event.Dispatcher,
	log *zap.Logger,
) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		products:  products,
		movements: movements,
		txScope:   txScope,
		events:    events,
		logger:    log,
		threshold: DefaultLowStockThreshold,
		now:       time.Now,
	}
}

// WithLowStockThreshold sets the default low-stock threshold
func (s *ProductService) WithLowStockThreshold(n int64) *ProductService {
	if n >= 0 {
		s.threshold = n
	}
	return s
}

// WithClock replaces the clock used for movement dates
func (s *ProductService) WithClock(now func() time.Time) *ProductService {
	s.now = now
	return s
}

// LowStockThreshold returns the configured threshold
func (s *ProductService) LowStockThreshold() int64 {
	return s.threshold
}

func (s *ProductService) tracker(repos txn.Repositories) *inventory.StockLevelTracker {
	return inventory.NewStockLevelTracker(repos.Products(), repos.StockMovements()).WithClock(s.now)
}

// Create creates a product. A positive initial stock is posted as an
// initial movement in the same transaction.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if req.InitialStock < 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity,
			"initial stock cannot be negative, got %d", req.InitialStock)
	}
	product, err := inventory.NewProduct(req.SKU, req.Name, valueobject.NewMoneyValue(req.PriceIQD, req.PriceUSD))
	if err != nil {
		return nil, err
	}
	product.Description = strings.TrimSpace(req.Description)

	var pending []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		if err := ensureUniqueSKU(ctx, repos.Products(), product.SKU, uuid.Nil); err != nil {
			return err
		}
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		pending = event.Collect(product)
		if req.InitialStock == 0 {
			return nil
		}

		tracker := s.tracker(repos)
		if _, err := tracker.Increase(ctx, inventory.StockChange{
			ProductID: product.ID,
			Quantity:  req.InitialStock,
			Reason:    inventory.ReasonInitial,
			Notes:     "Initial stock",
		}); err != nil {
			return err
		}
		pending = append(pending, tracker.DrainEvents()...)
		reloaded, err := repos.Products().FindByID(ctx, product.ID)
		if err != nil {
			return err
		}
		product = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, pending...)

	logger.FromContextOr(ctx, s.logger).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int64("initial_stock", req.InitialStock),
	)
	resp := ToProductResponse(product, s.threshold)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.threshold)
	return &resp, nil
}

// List retrieves a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}
	products, total, err := s.products.FindAll(ctx, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(products), total, nil
}

// LowStock lists products at or below threshold; a negative threshold uses the default
func (s *ProductService) LowStock(ctx context.Context, threshold int64, page, pageSize int) ([]ProductResponse, int64, error) {
	if threshold < 0 {
		threshold = s.threshold
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	products, total, err := s.products.FindLowStock(ctx, threshold, shared.Filter{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i], threshold)
	}
	return out, total, nil
}

// Update changes a product's descriptive fields and list prices. Prices
// already captured on documents are not affected.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	var updated *inventory.Product
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		product, err := repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		sku, name, description := product.SKU, product.Name, product.Description
		iqd, usd := product.Price.IQD(), product.Price.USD()
		if req.SKU != nil {
			sku = *req.SKU
		}
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if req.PriceIQD != nil {
			iqd = *req.PriceIQD
		}
		if req.PriceUSD != nil {
			usd = *req.PriceUSD
		}
		if err := product.Update(sku, name, description, valueobject.NewMoneyValue(iqd, usd)); err != nil {
			return err
		}
		if err := ensureUniqueSKU(ctx, repos.Products(), product.SKU, product.ID); err != nil {
			return err
		}
		if err := repos.Products().SaveWithLock(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(updated, s.threshold)
	return &resp, nil
}

// Delete removes a product that no document references
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		product, err := repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		count, err := repos.Documents().CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewStateError(shared.CodeProductInUse,
				"product %s is used on %d document lines and cannot be deleted", product.SKU, count).
				WithDetail("product_id", id.String()).
				WithDetail("line_count", count)
		}
		return repos.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.FromContextOr(ctx, s.logger).Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// Movements lists a product's stock movements ascending
func (s *ProductService) Movements(ctx context.Context, id uuid.UUID, page, pageSize int) ([]MovementResponse, int64, error) {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	movements, total, err := s.movements.FindByProduct(ctx, id, shared.Filter{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, total, nil
}

// RecordMovement posts a manual in or out movement
func (s *ProductService) RecordMovement(ctx context.Context, id uuid.UUID, req MovementRequest) (*MovementResponse, error) {
	return s.runMovement(ctx, func(tracker *inventory.StockLevelTracker) (*inventory.StockMovement, error) {
		return tracker.RecordMovement(ctx, id, inventory.Direction(req.Type), req.Quantity, req.Notes)
	})
}

// Adjust sets the stock to an absolute count. Nil is returned when the
// count already matches and nothing was posted.
func (s *ProductService) Adjust(ctx context.Context, id uuid.UUID, req AdjustRequest) (*MovementResponse, error) {
	return s.runMovement(ctx, func(tracker *inventory.StockLevelTracker) (*inventory.StockMovement, error) {
		return tracker.Adjust(ctx, id, req.Quantity, req.Notes)
	})
}

func (s *ProductService) runMovement(ctx context.Context, fn func(*inventory.StockLevelTracker) (*inventory.StockMovement, error)) (*MovementResponse, error) {
	var (
		movement *inventory.StockMovement
		pending  []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		tracker := s.tracker(repos)
		m, err := fn(tracker)
		if err != nil {
			return err
		}
		movement = m
		pending = tracker.DrainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, pending...)
	if movement == nil {
		return nil, nil
	}

	logger.FromContextOr(ctx, s.logger).Info("stock movement recorded",
		zap.String("product_id", movement.ProductID.String()),
		zap.String("direction", string(movement.Direction)),
		zap.String("reason", string(movement.Reason)),
		zap.Int64("quantity", movement.Quantity),
		zap.Int64("balance_after", movement.BalanceAfter),
	)
	resp := ToMovementResponse(movement)
	return &resp, nil
}

func (s *ProductService) toResponses(products []inventory.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i], s.threshold)
	}
	return out
}

func ensureUniqueSKU(ctx context.Context, repo inventory.ProductRepository, sku string, exclude uuid.UUID) error {
	exists, err := repo.ExistsBySKU(ctx, sku, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewConflictError(shared.CodeSKUExists, "a product with sku %s already exists", sku).
			WithDetail("sku", sku)
	}
	return nil
}

package inventory

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU          string
	Name         string
	Description  string
	PriceIQD     decimal.Decimal
	PriceUSD     decimal.Decimal
	InitialStock int64
}

// UpdateProductRequest represents a request to update a product. Nil fields are left unchanged.
type UpdateProductRequest struct {
	SKU         *string
	Name        *string
	Description *string
	PriceIQD    *decimal.Decimal
	PriceUSD    *decimal.Decimal
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// MovementRequest represents a manual stock movement
type MovementRequest struct {
	Type     string
	Quantity int64
	Notes    string
}

// AdjustRequest sets a product's stock to an absolute count
type AdjustRequest struct {
	Quantity int64
	Notes    string
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           uuid.UUID              `json:"id"`
	SKU          string                 `json:"sku"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Price        valueobject.MoneyValue `json:"price"`
	CurrentStock int64                  `json:"current_stock"`
	LowStock     bool                   `json:"low_stock"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Version      int                    `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *inventory.Product, threshold int64) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		CurrentStock: p.CurrentStock,
		LowStock:     p.IsLowStock(threshold),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Sequence        int64      `json:"sequence"`
	Date            time.Time  `json:"date"`
	Type            string     `json:"type"`
	Reason          string     `json:"reason"`
	Quantity        int64      `json:"quantity"`
	BalanceAfter    int64      `json:"balance_after"`
	ReferenceType   string     `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	Notes           string     `json:"notes"`
}

// ToMovementResponse converts a stock movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Sequence:        m.Sequence,
		Date:            m.MovementDate,
		Type:            string(m.Direction),
		Reason:          string(m.Reason),
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
		ReferenceType:   m.Reference.Type,
		ReferenceNumber: m.Reference.Number,
		Notes:           m.Notes,
	}
	if m.Reference.ID != uuid.Nil {
		id := m.Reference.ID
		resp.ReferenceID = &id
	}
	return resp
}

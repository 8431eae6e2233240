package inventory

import (
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeProduct is the aggregate type of inventory events
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeStockChanged   = "StockChanged"
)

// ProductCreatedEvent is raised when a product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		SKU:             p.SKU,
	}
}

// StockChangedEvent is raised for every stock movement
type StockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID      `json:"product_id"`
	MovementID   uuid.UUID      `json:"movement_id"`
	Direction    Direction      `json:"direction"`
	Reason       MovementReason `json:"reason"`
	Quantity     int64          `json:"quantity"`
	BalanceAfter int64          `json:"balance_after"`
}

// NewStockChangedEvent creates a new StockChangedEvent
func NewStockChangedEvent(p *Product, m *StockMovement) *StockChangedEvent {
	return &StockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockChanged, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		MovementID:      m.ID,
		Direction:       m.Direction,
		Reason:          m.Reason,
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
	}
}

package inventory

import (
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stocked item with list prices captured in both currencies.
// CurrentStock only changes through Move, which writes the matching
// StockMovement, so the stock level is always the sum of its movements.
type Product struct {
	shared.BaseAggregateRoot
	SKU            string
	Name           string
	Description    string
	Price          valueobject.MoneyValue
	CurrentStock   int64
	MovementSeq    int64
	LastMovementAt time.Time
}

// NewProduct creates a product with no stock
func NewProduct(sku, name string, price valueobject.MoneyValue) (*Product, error) {
	sku, name, err := validateProductIdentity(sku, name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Price:             price.Round(),
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

func validateProductIdentity(sku, name string) (string, string, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return "", "", shared.NewValidationError(shared.CodeMissingField, "product sku is required")
	}
	if len(sku) > 50 {
		return "", "", shared.NewValidationError(shared.CodeInvalidInput, "product sku cannot exceed 50 characters")
	}
	if name == "" {
		return "", "", shared.NewValidationError(shared.CodeMissingField, "product name is required")
	}
	if len(name) > 200 {
		return "", "", shared.NewValidationError(shared.CodeInvalidInput, "product name cannot exceed 200 characters")
	}
	return sku, name, nil
}

func validatePrice(price valueobject.MoneyValue) error {
	if !price.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidPrice,
			"product price must be greater than zero in both currencies, got %s", price.String())
	}
	if price.IQD().LessThan(decimal.NewFromInt(1)) {
		return shared.NewValidationError(shared.CodeInvalidPrice,
			"product price must be at least 1 IQD, got %s", price.IQD())
	}
	return nil
}

// Update replaces the descriptive fields and list prices
func (p *Product) Update(sku, name, description string, price valueobject.MoneyValue) error {
	sku, name, err := validateProductIdentity(sku, name)
	if err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	p.SKU = sku
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Price = price.Round()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// CanFulfill reports whether quantity units can leave stock
func (p *Product) CanFulfill(quantity int64) bool {
	return quantity <= p.CurrentStock
}

// IsLowStock reports whether stock is at or below threshold
func (p *Product) IsLowStock(threshold int64) bool {
	return p.CurrentStock <= threshold
}

// Move applies one stock movement and returns the record of it. An outbound
// movement larger than the stock on hand is rejected and nothing changes.
// The movement keeps its own date; the running balance follows sequence order.
func (p *Product) Move(dir Direction, quantity int64, reason MovementReason, ref Reference, at time.Time, notes string) (*StockMovement, error) {
	if !dir.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown movement type %q (want in or out)", dir)
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity,
			"movement quantity must be a positive integer, got %d", quantity).
			WithDetail("product_id", p.ID.String())
	}
	if dir == DirectionOut && !p.CanFulfill(quantity) {
		return nil, InsufficientStock(p, quantity)
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	if dir == DirectionIn {
		p.CurrentStock += quantity
	} else {
		p.CurrentStock -= quantity
	}
	p.MovementSeq++
	if at.After(p.LastMovementAt) {
		p.LastMovementAt = at
	}
	p.Touch()
	p.IncrementVersion()

	m := &StockMovement{
		ID:           uuid.New(),
		ProductID:    p.ID,
		Sequence:     p.MovementSeq,
		MovementDate: at,
		Direction:    dir,
		Reason:       reason,
		Quantity:     quantity,
		BalanceAfter: p.CurrentStock,
		Reference:    ref,
		Notes:        notes,
		CreatedAt:    time.Now(),
	}
	p.AddDomainEvent(NewStockChangedEvent(p, m))
	return m, nil
}

// InsufficientStock builds the conflict error for an outbound request the
// product cannot cover
func InsufficientStock(p *Product, requested int64) *shared.DomainError {
	return shared.NewConflictError(shared.CodeInsufficientStock,
		"insufficient stock for product %s (%s): on hand %d, requested %d",
		p.Name, p.SKU, p.CurrentStock, requested).
		WithDetail("product_id", p.ID.String()).
		WithDetail("sku", p.SKU).
		WithDetail("on_hand", p.CurrentStock).
		WithDetail("requested", requested)
}

package models

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	AggregateModel
	SKU            string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null;index"`
	Description    string          `gorm:"type:text"`
	PriceIQD       decimal.Decimal `gorm:"column:price_iqd;type:decimal(18,4);not null;default:0"`
	PriceUSD       decimal.Decimal `gorm:"column:price_usd;type:decimal(18,4);not null;default:0"`
	CurrentStock   int64           `gorm:"not null;default:0;check:current_stock >= 0"`
	MovementSeq    int64           `gorm:"not null;default:0"`
	LastMovementAt *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		Description:       m.Description,
		Price:             valueobject.NewMoneyValue(m.PriceIQD, m.PriceUSD),
		CurrentStock:      m.CurrentStock,
		MovementSeq:       m.MovementSeq,
		LastMovementAt:    timeValue(m.LastMovementAt),
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *inventory.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Description = p.Description
	m.PriceIQD = p.Price.IQD()
	m.PriceUSD = p.Price.USD()
	m.CurrentStock = p.CurrentStock
	m.MovementSeq = p.MovementSeq
	m.LastMovementAt = timePtr(p.LastMovementAt)
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// StockMovementModel is one row of a product's append-only movement log
type StockMovementModel struct {
	ID              uuid.UUID                `gorm:"type:uuid;primary_key"`
	ProductID       uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_movement_product_seq,priority:1"`
	Seq             int64                    `gorm:"not null;uniqueIndex:idx_movement_product_seq,priority:2"`
	MovementDate    time.Time                `gorm:"not null;index"`
	Direction       inventory.Direction      `gorm:"type:varchar(10);not null"`
	Reason          inventory.MovementReason `gorm:"type:varchar(20);not null"`
	Quantity        int64                    `gorm:"not null"`
	BalanceAfter    int64                    `gorm:"not null"`
	ReferenceType   string                   `gorm:"type:varchar(20)"`
	ReferenceID     *uuid.UUID               `gorm:"type:uuid;index"`
	ReferenceNumber string                   `gorm:"type:varchar(50)"`
	Notes           string                   `gorm:"type:text"`
	CreatedAt       time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	ref := inventory.Reference{Type: m.ReferenceType, Number: m.ReferenceNumber}
	if m.ReferenceID != nil {
		ref.ID = *m.ReferenceID
	}
	return &inventory.StockMovement{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Sequence:     m.Seq,
		MovementDate: m.MovementDate.UTC(),
		Direction:    m.Direction,
		Reason:       m.Reason,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		Reference:    ref,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{
		ID:              mv.ID,
		ProductID:       mv.ProductID,
		Seq:             mv.Sequence,
		MovementDate:    mv.MovementDate.UTC(),
		Direction:       mv.Direction,
		Reason:          mv.Reason,
		Quantity:        mv.Quantity,
		BalanceAfter:    mv.BalanceAfter,
		ReferenceType:   mv.Reference.Type,
		ReferenceNumber: mv.Reference.Number,
		Notes:           mv.Notes,
		CreatedAt:       mv.CreatedAt.UTC(),
	}
	if mv.Reference.ID != uuid.Nil {
		id := mv.Reference.ID
		m.ReferenceID = &id
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return m
}

package models

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for sale and purchase invoices
type DocumentModel struct {
	AggregateModel
	Kind         trade.DocumentKind   `gorm:"type:varchar(20);not null;index"`
	Number       string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	PartyID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	DocumentDate time.Time            `gorm:"not null;index"`
	Status       trade.DocumentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalIQD     decimal.Decimal      `gorm:"column:total_iqd;type:decimal(18,4);not null;default:0"`
	TotalUSD     decimal.Decimal      `gorm:"column:total_usd;type:decimal(18,4);not null;default:0"`
	Notes        string               `gorm:"type:text"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	Items        []DocumentItemModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *trade.Document {
	items := make([]trade.DocumentItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &trade.Document{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		Number:            m.Number,
		PartyID:           m.PartyID,
		Date:              m.DocumentDate.UTC(),
		Items:             items,
		Status:            m.Status,
		Total:             valueobject.NewMoneyValue(m.TotalIQD, m.TotalUSD),
		Notes:             m.Notes,
		CompletedAt:       utcPtr(m.CompletedAt),
		CancelledAt:       utcPtr(m.CancelledAt),
	}
}

// FromDomain populates the persistence model from a domain Document
func (m *DocumentModel) FromDomain(d *trade.Document) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.Kind = d.Kind
	m.Number = d.Number
	m.PartyID = d.PartyID
	m.DocumentDate = d.Date.UTC()
	m.Status = d.Status
	m.TotalIQD = d.Total.IQD()
	m.TotalUSD = d.Total.USD()
	m.Notes = d.Notes
	m.CompletedAt = utcPtr(d.CompletedAt)
	m.CancelledAt = utcPtr(d.CancelledAt)
	m.Items = make([]DocumentItemModel, len(d.Items))
	for i := range d.Items {
		m.Items[i].FromDomain(d.ID, &d.Items[i])
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document
func DocumentModelFromDomain(d *trade.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentItemModel is one line of a document. Prices are captured at the
// time the line was written and never follow later product price changes.
type DocumentItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position         int             `gorm:"not null"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	Quantity         int64           `gorm:"not null"`
	UnitPriceIQD     decimal.Decimal `gorm:"column:unit_price_iqd;type:decimal(18,4);not null"`
	UnitPriceUSD     decimal.Decimal `gorm:"column:unit_price_usd;type:decimal(18,4);not null"`
	LineTotalIQD     decimal.Decimal `gorm:"column:line_total_iqd;type:decimal(18,4);not null"`
	LineTotalUSD     decimal.Decimal `gorm:"column:line_total_usd;type:decimal(18,4);not null"`
	ReturnedQuantity int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "document_items"
}

// ToDomain converts the persistence model to a domain DocumentItem
func (m *DocumentItemModel) ToDomain() trade.DocumentItem {
	return trade.DocumentItem{
		ID:       m.ID,
		Position: m.Position,
		LineItem: trade.LineItem{
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Quantity:    m.Quantity,
			UnitPrice:   valueobject.NewMoneyValue(m.UnitPriceIQD, m.UnitPriceUSD),
		},
		LineTotal:        valueobject.NewMoneyValue(m.LineTotalIQD, m.LineTotalUSD),
		ReturnedQuantity: m.ReturnedQuantity,
	}
}

// FromDomain populates the persistence model from a domain DocumentItem
func (m *DocumentItemModel) FromDomain(documentID uuid.UUID, it *trade.DocumentItem) {
	m.ID = it.ID
	m.DocumentID = documentID
	m.Position = it.Position
	m.ProductID = it.ProductID
	m.ProductName = it.ProductName
	m.Quantity = it.Quantity
	m.UnitPriceIQD = it.UnitPrice.IQD()
	m.UnitPriceUSD = it.UnitPrice.USD()
	m.LineTotalIQD = it.LineTotal.IQD()
	m.LineTotalUSD = it.LineTotal.USD()
	m.ReturnedQuantity = it.ReturnedQuantity
}

// ReturnModel is the persistence model for a return against a document
type ReturnModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key"`
	Number       string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	DocumentID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	DocumentKind trade.DocumentKind `gorm:"type:varchar(20);not null"`
	PartyID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	ReversalIQD  decimal.Decimal    `gorm:"column:reversal_iqd;type:decimal(18,4);not null"`
	ReversalUSD  decimal.Decimal    `gorm:"column:reversal_usd;type:decimal(18,4);not null"`
	ReturnDate   time.Time          `gorm:"not null"`
	CreatedAt    time.Time          `gorm:"not null"`
	Items        []ReturnItemModel  `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnModel) TableName() string {
	return "returns"
}

// ToDomain converts the persistence model to a domain Return
func (m *ReturnModel) ToDomain() *trade.Return {
	items := make([]trade.ReturnItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = trade.ReturnItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Reason:    it.Reason,
			Reversal:  valueobject.NewMoneyValue(it.ReversalIQD, it.ReversalUSD),
		}
	}
	return &trade.Return{
		ID:           m.ID,
		Number:       m.Number,
		DocumentID:   m.DocumentID,
		DocumentKind: m.DocumentKind,
		PartyID:      m.PartyID,
		Items:        items,
		Reversal:     valueobject.NewMoneyValue(m.ReversalIQD, m.ReversalUSD),
		Date:         m.ReturnDate.UTC(),
		CreatedAt:    m.CreatedAt,
	}
}

// ReturnModelFromDomain creates a persistence model from a domain Return
func ReturnModelFromDomain(r *trade.Return) *ReturnModel {
	m := &ReturnModel{
		ID:           r.ID,
		Number:       r.Number,
		DocumentID:   r.DocumentID,
		DocumentKind: r.DocumentKind,
		PartyID:      r.PartyID,
		ReversalIQD:  r.Reversal.IQD(),
		ReversalUSD:  r.Reversal.USD(),
		ReturnDate:   r.Date.UTC(),
		CreatedAt:    r.CreatedAt.UTC(),
		Items:        make([]ReturnItemModel, len(r.Items)),
	}
	for i, it := range r.Items {
		m.Items[i] = ReturnItemModel{
			ID:          it.ID,
			ReturnID:    r.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Reason:      it.Reason,
			ReversalIQD: it.Reversal.IQD(),
			ReversalUSD: it.Reversal.USD(),
		}
	}
	return m
}

// ReturnItemModel is one returned product of a return
type ReturnItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    int64           `gorm:"not null"`
	Reason      string          `gorm:"type:text"`
	ReversalIQD decimal.Decimal `gorm:"column:reversal_iqd;type:decimal(18,4);not null"`
	ReversalUSD decimal.Decimal `gorm:"column:reversal_usd;type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ReturnItemModel) TableName() string {
	return "return_items"
}

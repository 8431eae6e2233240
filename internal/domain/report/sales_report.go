package report

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind selects sales or purchases in a report query
type DocumentKind string

const (
	KindSale     DocumentKind = "sale"
	KindPurchase DocumentKind = "purchase"
)

// Filter bounds a report query. Only completed and returned documents are counted.
type Filter struct {
	Kind      DocumentKind
	StartDate time.Time
	EndDate   time.Time
	TopN      int
}

// DocumentSummary is the aggregate of documents in a period
type DocumentSummary struct {
	PeriodStart time.Time              `json:"period_start"`
	PeriodEnd   time.Time              `json:"period_end"`
	Count       int64                  `json:"count"`
	Total       valueobject.MoneyValue `json:"total"`
	Average     valueobject.MoneyValue `json:"average"`
}

// DailyTrend is one day of document totals
type DailyTrend struct {
	Date      time.Time              `json:"date"`
	Count     int64                  `json:"count"`
	Total     valueobject.MoneyValue `json:"total"`
	ItemsSold int64                  `json:"items_sold"`
}

// ProductRanking ranks a product by quantity sold
type ProductRanking struct {
	Rank          int                    `json:"rank"`
	ProductID     uuid.UUID              `json:"product_id"`
	ProductSKU    string                 `json:"product_sku"`
	ProductName   string                 `json:"product_name"`
	TotalQuantity int64                  `json:"total_quantity"`
	Total         valueobject.MoneyValue `json:"total"`
	DocumentCount int64                  `json:"document_count"`
}

// PartyRanking ranks a customer or supplier by document totals
type PartyRanking struct {
	Rank           int                    `json:"rank"`
	PartyID        uuid.UUID              `json:"party_id"`
	PartyName      string                 `json:"party_name"`
	DocumentCount  int64                  `json:"document_count"`
	Total          valueobject.MoneyValue `json:"total"`
	Balance        decimal.Decimal        `json:"balance"`
	LastDocumentAt *time.Time             `json:"last_document_at,omitempty"`
}

package trade

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemInput is one requested document line. Missing prices fall back to
// the product's list price at the time the line is captured.
type LineItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
	PriceIQD  *decimal.Decimal
	PriceUSD  *decimal.Decimal
}

// CreateDocumentRequest represents a request to create a sale or purchase
type CreateDocumentRequest struct {
	PartyID uuid.UUID
	Items   []LineItemInput
	Notes   string
	// Status is pending or completed; empty means completed
	Status string
	Date   *time.Time
}

// UpdateDocumentRequest replaces the party, lines and notes of a pending document
type UpdateDocumentRequest struct {
	PartyID uuid.UUID
	Items   []LineItemInput
	Notes   string
	Date    *time.Time
}

// DocumentListFilter represents filter options for document lists
type DocumentListFilter struct {
	PartyID   *uuid.UUID
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Page      int
	PageSize  int
}

// ReturnItemInput is one product to return
type ReturnItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
	Reason    string
}

// ReturnRequest represents a request to return goods against a document
type ReturnRequest struct {
	Items []ReturnItemInput
}

// DocumentItemResponse represents a document line in API responses
type DocumentItemResponse struct {
	ID               uuid.UUID              `json:"id"`
	Position         int                    `json:"position"`
	ProductID        uuid.UUID              `json:"product_id"`
	ProductName      string                 `json:"product_name"`
	Quantity         int64                  `json:"quantity"`
	UnitPrice        valueobject.MoneyValue `json:"unit_price"`
	LineTotal        valueobject.MoneyValue `json:"line_total"`
	ReturnedQuantity int64                  `json:"returned_quantity"`
}

// DocumentResponse represents a sale or purchase in API responses
type DocumentResponse struct {
	ID          uuid.UUID               `json:"id"`
	Kind        string                  `json:"kind"`
	Number      string                  `json:"number"`
	PartyID     uuid.UUID               `json:"party_id"`
	Date        time.Time               `json:"date"`
	Status      string                  `json:"status"`
	Items       []DocumentItemResponse  `json:"items"`
	Total       valueobject.MoneyValue  `json:"total"`
	Notes       string                  `json:"notes"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	CancelledAt *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Version     int                     `json:"version"`
	Warnings    []partner.CreditWarning `json:"warnings,omitempty"`
}

// ToDocumentResponse converts a domain Document to DocumentResponse
func ToDocumentResponse(d *trade.Document) DocumentResponse {
	items := make([]DocumentItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = DocumentItemResponse{
			ID:               it.ID,
			Position:         it.Position,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			LineTotal:        it.LineTotal,
			ReturnedQuantity: it.ReturnedQuantity,
		}
	}
	return DocumentResponse{
		ID:          d.ID,
		Kind:        string(d.Kind),
		Number:      d.Number,
		PartyID:     d.PartyID,
		Date:        d.Date,
		Status:      string(d.Status),
		Items:       items,
		Total:       d.Total,
		Notes:       d.Notes,
		CompletedAt: d.CompletedAt,
		CancelledAt: d.CancelledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Version:     d.Version,
	}
}

// ReturnItemResponse represents a returned product in API responses
type ReturnItemResponse struct {
	ProductID uuid.UUID              `json:"product_id"`
	Quantity  int64                  `json:"quantity"`
	Reason    string                 `json:"reason"`
	Reversal  valueobject.MoneyValue `json:"reversal"`
}

// ReturnResponse represents a return in API responses
type ReturnResponse struct {
	ID             uuid.UUID              `json:"id"`
	Number         string                 `json:"number"`
	DocumentID     uuid.UUID              `json:"document_id"`
	DocumentKind   string                 `json:"document_kind"`
	PartyID        uuid.UUID              `json:"party_id"`
	Items          []ReturnItemResponse   `json:"items"`
	Reversal       valueobject.MoneyValue `json:"reversal"`
	Date           time.Time              `json:"date"`
	CreatedAt      time.Time              `json:"created_at"`
	DocumentStatus string                 `json:"document_status,omitempty"`
}

// ToReturnResponse converts a domain Return to ReturnResponse
func ToReturnResponse(r *trade.Return) ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i, it := range r.Items {
		items[i] = ReturnItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Reason:    it.Reason,
			Reversal:  it.Reversal,
		}
	}
	return ReturnResponse{
		ID:           r.ID,
		Number:       r.Number,
		DocumentID:   r.DocumentID,
		DocumentKind: string(r.DocumentKind),
		PartyID:      r.PartyID,
		Items:        items,
		Reversal:     r.Reversal,
		Date:         r.Date,
		CreatedAt:    r.CreatedAt,
	}
}

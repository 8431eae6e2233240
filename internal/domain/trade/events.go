package trade

import (
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeDocument is the aggregate type of trade events
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentCreated   = "DocumentCreated"
	EventTypeDocumentCompleted = "DocumentCompleted"
)

// DocumentCreatedEvent is raised when a sale or purchase is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID    `json:"document_id"`
	Kind       DocumentKind `json:"kind"`
	Number     string       `json:"number"`
	PartyID    uuid.UUID    `json:"party_id"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(d *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, d.ID),
		DocumentID:      d.ID,
		Kind:            d.Kind,
		Number:          d.Number,
		PartyID:         d.PartyID,
	}
}

// DocumentCompletedEvent is raised when a document's effects are applied
type DocumentCompletedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID       `json:"document_id"`
	Kind       DocumentKind    `json:"kind"`
	Number     string          `json:"number"`
	TotalIQD   decimal.Decimal `json:"total_iqd"`
	TotalUSD   decimal.Decimal `json:"total_usd"`
}

// NewDocumentCompletedEvent creates a new DocumentCompletedEvent
func NewDocumentCompletedEvent(d *Document) *DocumentCompletedEvent {
	return &DocumentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCompleted, AggregateTypeDocument, d.ID),
		DocumentID:      d.ID,
		Kind:            d.Kind,
		Number:          d.Number,
		TotalIQD:        d.Total.IQD(),
		TotalUSD:        d.Total.USD(),
	}
}

package partner

import (
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants for partner events
const (
	AggregateTypeParty   = "Party"
	AggregateTypePayment = "Payment"
)

// Event type constants
const (
	EventTypePartyCreated        = "PartyCreated"
	EventTypeLedgerEntryPosted   = "LedgerEntryPosted"
	EventTypePaymentRecorded     = "PaymentRecorded"
	EventTypeCreditLimitExceeded = "CreditLimitExceeded"
)

// PartyCreatedEvent is raised when a customer or supplier is created
type PartyCreatedEvent struct {
	shared.BaseDomainEvent
	PartyID uuid.UUID `json:"party_id"`
	Kind    PartyKind `json:"kind"`
	Name    string    `json:"name"`
}

// NewPartyCreatedEvent creates a new PartyCreatedEvent
func NewPartyCreatedEvent(p *Party) *PartyCreatedEvent {
	return &PartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyCreated, AggregateTypeParty, p.ID),
		PartyID:         p.ID,
		Kind:            p.Kind,
		Name:            p.Name,
	}
}

// LedgerEntryPostedEvent is raised for every ledger entry
type LedgerEntryPostedEvent struct {
	shared.BaseDomainEvent
	PartyID      uuid.UUID       `json:"party_id"`
	EntryID      uuid.UUID       `json:"entry_id"`
	Sequence     int64           `json:"sequence"`
	Type         EntryType       `json:"type"`
	AmountDelta  decimal.Decimal `json:"amount_delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// NewLedgerEntryPostedEvent creates a new LedgerEntryPostedEvent
func NewLedgerEntryPostedEvent(p *Party, e *LedgerEntry) *LedgerEntryPostedEvent {
	return &LedgerEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryPosted, AggregateTypeParty, p.ID),
		PartyID:         p.ID,
		EntryID:         e.ID,
		Sequence:        e.Sequence,
		Type:            e.Type,
		AmountDelta:     e.AmountDelta,
		BalanceAfter:    e.BalanceAfter,
	}
}

// PaymentRecordedEvent is raised when a payment is created
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	PartyID   uuid.UUID       `json:"party_id"`
	Method    MethodKind      `json:"method"`
	AmountIQD decimal.Decimal `json:"amount_iqd"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		PartyID:         p.PartyID,
		Method:          p.Method.Kind(),
		AmountIQD:       p.Amount.IQD(),
	}
}

// CreditLimitExceededEvent is raised when a sale pushes a customer past the
// credit limit under the warn policy
type CreditLimitExceededEvent struct {
	shared.BaseDomainEvent
	PartyID     uuid.UUID       `json:"party_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Projected   decimal.Decimal `json:"projected_balance"`
}

// NewCreditLimitExceededEvent creates a new CreditLimitExceededEvent
func NewCreditLimitExceededEvent(p *Party, projected decimal.Decimal) *CreditLimitExceededEvent {
	return &CreditLimitExceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditLimitExceeded, AggregateTypeParty, p.ID),
		PartyID:         p.ID,
		CreditLimit:     p.CreditLimit,
		Projected:       projected,
	}
}

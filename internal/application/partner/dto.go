package partner

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Party DTOs
// =============================================================================

// CreatePartyRequest represents a request to create a customer or supplier
type CreatePartyRequest struct {
	Name        string
	Phone       string
	Email       string
	Address     string
	Notes       string
	CreditLimit *decimal.Decimal
}

// UpdatePartyRequest represents a request to update a party. Nil fields are left unchanged.
type UpdatePartyRequest struct {
	Name        *string
	Phone       *string
	Email       *string
	Address     *string
	Notes       *string
	CreditLimit *decimal.Decimal
	Status      *string
}

// PartyListFilter represents filter options for party lists
type PartyListFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// PartyResponse represents a customer or supplier in API responses
type PartyResponse struct {
	ID             uuid.UUID                     `json:"id"`
	Kind           string                        `json:"kind"`
	Name           string                        `json:"name"`
	Phone          string                        `json:"phone"`
	Email          string                        `json:"email"`
	Address        string                        `json:"address"`
	Notes          string                        `json:"notes"`
	CreditLimit    decimal.Decimal               `json:"credit_limit"`
	Status         string                        `json:"status"`
	Balance        decimal.Decimal               `json:"balance"`
	Interpretation partner.BalanceInterpretation `json:"balance_interpretation"`
	LastEntryAt    *time.Time                    `json:"last_entry_at,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
	Version        int                           `json:"version"`
}

// ToPartyResponse converts a domain Party to PartyResponse
func ToPartyResponse(p *partner.Party) PartyResponse {
	resp := PartyResponse{
		ID:             p.ID,
		Kind:           string(p.Kind),
		Name:           p.Name,
		Phone:          p.Contact.Phone,
		Email:          p.Contact.Email,
		Address:        p.Contact.Address,
		Notes:          p.Notes,
		CreditLimit:    p.CreditLimit,
		Status:         string(p.Status),
		Balance:        p.Balance,
		Interpretation: p.Interpretation(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
	if !p.LastEntryAt.IsZero() {
		at := p.LastEntryAt
		resp.LastEntryAt = &at
	}
	return resp
}

// ToPartyResponses converts a slice of domain Parties
func ToPartyResponses(parties []partner.Party) []PartyResponse {
	responses := make([]PartyResponse, len(parties))
	for i := range parties {
		responses[i] = ToPartyResponse(&parties[i])
	}
	return responses
}

// TransactionQuery filters a party's ledger history
type TransactionQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Limit     int
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	Sequence        int64           `json:"sequence"`
	Date            time.Time       `json:"date"`
	Type            string          `json:"type"`
	AmountDelta     decimal.Decimal `json:"amount_delta"`
	AmountDeltaUSD  decimal.Decimal `json:"amount_delta_usd"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Description     string          `json:"description"`
}

// ToLedgerEntryResponse converts a ledger entry
func ToLedgerEntryResponse(e partner.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:              e.ID,
		Sequence:        e.Sequence,
		Date:            e.EntryDate,
		Type:            string(e.Type),
		AmountDelta:     e.AmountDelta,
		AmountDeltaUSD:  e.AmountDeltaUSD,
		BalanceBefore:   e.BalanceBefore(),
		BalanceAfter:    e.BalanceAfter,
		ReferenceType:   string(e.Reference.Type),
		ReferenceNumber: e.Reference.Number,
		Description:     e.Description,
	}
	if e.Reference.ID != uuid.Nil {
		id := e.Reference.ID
		resp.ReferenceID = &id
	}
	return resp
}

// PartyStatisticsResponse summarizes a party's trading
type PartyStatisticsResponse struct {
	PartyID        uuid.UUID                     `json:"party_id"`
	DocumentCount  int64                         `json:"document_count"`
	Total          valueobject.MoneyValue        `json:"total"`
	LastDocumentAt *time.Time                    `json:"last_document_at,omitempty"`
	Balance        decimal.Decimal               `json:"balance"`
	Interpretation partner.BalanceInterpretation `json:"balance_interpretation"`
	CreditLimit    decimal.Decimal               `json:"credit_limit"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	PartyID      uuid.UUID
	AmountIQD    decimal.Decimal
	AmountUSD    decimal.Decimal
	Method       string
	BankName     string
	ChequeNumber string
	ChequeDate   *time.Time
	Notes        string
	Date         *time.Time
}

// UpdatePaymentRequest represents a request to change a payment
type UpdatePaymentRequest struct {
	AmountIQD    decimal.Decimal
	AmountUSD    decimal.Decimal
	Method       string
	BankName     string
	ChequeNumber string
	ChequeDate   *time.Time
	Notes        string
	Date         *time.Time
}

// PaymentListFilter represents filter options for payment lists
type PaymentListFilter struct {
	PartyID  *uuid.UUID
	Page     int
	PageSize int
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID              `json:"id"`
	PartyID       uuid.UUID              `json:"party_id"`
	PartyKind     string                 `json:"party_kind"`
	Amount        valueobject.MoneyValue `json:"amount"`
	PaymentMethod string                 `json:"payment_method"`
	BankName      string                 `json:"bank_name,omitempty"`
	ChequeNumber  string                 `json:"cheque_number,omitempty"`
	ChequeDate    *time.Time             `json:"cheque_date,omitempty"`
	Date          time.Time              `json:"date"`
	Notes         string                 `json:"notes"`
	CreatedAt     time.Time              `json:"created_at"`
	Version       int                    `json:"version"`
	// Balance is the party's balance after the payment was posted
	Balance *decimal.Decimal `json:"balance,omitempty"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *partner.Payment) PaymentResponse {
	d := partner.DescribeMethod(p.Method)
	return PaymentResponse{
		ID:            p.ID,
		PartyID:       p.PartyID,
		PartyKind:     string(p.PartyKind),
		Amount:        p.Amount,
		PaymentMethod: string(d.Kind),
		BankName:      d.BankName,
		ChequeNumber:  d.ChequeNumber,
		ChequeDate:    d.ChequeDate,
		Date:          p.Date,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		Version:       p.Version,
	}
}

func methodDetails(method, bankName, chequeNumber string, chequeDate *time.Time) partner.MethodDetails {
	return partner.MethodDetails{
		Kind:         partner.MethodKind(method),
		BankName:     bankName,
		ChequeNumber: chequeNumber,
		ChequeDate:   chequeDate,
	}
}

package models

import (
	"time"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyModel is the persistence model for customers and suppliers.
// Balance, EntrySeq and LastEntryAt mirror the head of the party's ledger.
type PartyModel struct {
	AggregateModel
	Kind        partner.PartyKind   `gorm:"type:varchar(20);not null;index"`
	Name        string              `gorm:"type:varchar(200);not null"`
	Phone       string              `gorm:"type:varchar(50)"`
	Email       string              `gorm:"type:varchar(200)"`
	Address     string              `gorm:"type:text"`
	Notes       string              `gorm:"type:text"`
	CreditLimit decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status      partner.PartyStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Balance     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	EntrySeq    int64               `gorm:"not null;default:0"`
	LastEntryAt *time.Time
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		Name:              m.Name,
		Contact: partner.ContactInfo{
			Phone:   m.Phone,
			Email:   m.Email,
			Address: m.Address,
		},
		Notes:       m.Notes,
		CreditLimit: m.CreditLimit,
		Status:      m.Status,
		Balance:     m.Balance,
		EntrySeq:    m.EntrySeq,
		LastEntryAt: timeValue(m.LastEntryAt),
	}
}

// FromDomain populates the persistence model from a domain Party
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Kind = p.Kind
	m.Name = p.Name
	m.Phone = p.Contact.Phone
	m.Email = p.Contact.Email
	m.Address = p.Contact.Address
	m.Notes = p.Notes
	m.CreditLimit = p.CreditLimit
	m.Status = p.Status
	m.Balance = p.Balance
	m.EntrySeq = p.EntrySeq
	m.LastEntryAt = timePtr(p.LastEntryAt)
}

// PartyModelFromDomain creates a new persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}

// LedgerEntryModel is one row of the append-only party ledger
type LedgerEntryModel struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key"`
	PartyID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_party_seq,priority:1"`
	Seq             int64                 `gorm:"not null;uniqueIndex:idx_ledger_party_seq,priority:2"`
	EntryDate       time.Time             `gorm:"not null;index"`
	Type            partner.EntryType     `gorm:"type:varchar(20);not null"`
	AmountDeltaIQD  decimal.Decimal       `gorm:"column:amount_delta_iqd;type:decimal(18,4);not null"`
	AmountDeltaUSD  decimal.Decimal       `gorm:"column:amount_delta_usd;type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	ReferenceType   partner.ReferenceType `gorm:"type:varchar(20)"`
	ReferenceID     *uuid.UUID            `gorm:"type:uuid;index"`
	ReferenceNumber string                `gorm:"type:varchar(50)"`
	Description     string                `gorm:"type:text"`
	CreatedAt       time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *partner.LedgerEntry {
	ref := partner.Reference{Type: m.ReferenceType, Number: m.ReferenceNumber}
	if m.ReferenceID != nil {
		ref.ID = *m.ReferenceID
	}
	return &partner.LedgerEntry{
		ID:             m.ID,
		PartyID:        m.PartyID,
		Sequence:       m.Seq,
		EntryDate:      m.EntryDate.UTC(),
		Type:           m.Type,
		AmountDelta:    m.AmountDeltaIQD,
		AmountDeltaUSD: m.AmountDeltaUSD,
		BalanceAfter:   m.BalanceAfter,
		Reference:      ref,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *partner.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		ID:              e.ID,
		PartyID:         e.PartyID,
		Seq:             e.Sequence,
		EntryDate:       e.EntryDate.UTC(),
		Type:            e.Type,
		AmountDeltaIQD:  e.AmountDelta,
		AmountDeltaUSD:  e.AmountDeltaUSD,
		BalanceAfter:    e.BalanceAfter,
		ReferenceType:   e.Reference.Type,
		ReferenceNumber: e.Reference.Number,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt.UTC(),
	}
	if e.Reference.ID != uuid.Nil {
		id := e.Reference.ID
		m.ReferenceID = &id
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return m
}

// PaymentModel stores a payment with its method flattened into columns
type PaymentModel struct {
	AggregateModel
	PartyID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	PartyKind    partner.PartyKind  `gorm:"type:varchar(20);not null;index"`
	AmountIQD    decimal.Decimal    `gorm:"column:amount_iqd;type:decimal(18,4);not null"`
	AmountUSD    decimal.Decimal    `gorm:"column:amount_usd;type:decimal(18,4);not null"`
	Method       partner.MethodKind `gorm:"type:varchar(20);not null"`
	BankName     string             `gorm:"type:varchar(200)"`
	ChequeNumber string             `gorm:"type:varchar(50)"`
	ChequeDate   *time.Time
	PaymentDate  time.Time `gorm:"not null;index"`
	Notes        string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment. A row whose
// method columns are incomplete is reported as an error.
func (m *PaymentModel) ToDomain() (*partner.Payment, error) {
	method, err := partner.NewPaymentMethod(partner.MethodDetails{
		Kind:         m.Method,
		BankName:     m.BankName,
		ChequeNumber: m.ChequeNumber,
		ChequeDate:   m.ChequeDate,
	})
	if err != nil {
		return nil, err
	}
	return &partner.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PartyID:           m.PartyID,
		PartyKind:         m.PartyKind,
		Amount:            valueobject.NewMoneyValue(m.AmountIQD, m.AmountUSD),
		Method:            method,
		Date:              m.PaymentDate.UTC(),
		Notes:             m.Notes,
	}, nil
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *partner.Payment) *PaymentModel {
	details := partner.DescribeMethod(p.Method)
	m := &PaymentModel{
		PartyID:      p.PartyID,
		PartyKind:    p.PartyKind,
		AmountIQD:    p.Amount.IQD(),
		AmountUSD:    p.Amount.USD(),
		Method:       details.Kind,
		BankName:     details.BankName,
		ChequeNumber: details.ChequeNumber,
		ChequeDate:   utcPtr(details.ChequeDate),
		PaymentDate:  p.Date.UTC(),
		Notes:        p.Notes,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

package partner

import (
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyKind distinguishes customers from suppliers
type PartyKind string

const (
	PartyKindCustomer PartyKind = "customer"
	PartyKindSupplier PartyKind = "supplier"
)

// IsValid returns true if the kind is known
func (k PartyKind) IsValid() bool {
	return k == PartyKindCustomer || k == PartyKindSupplier
}

// String returns the string representation of PartyKind
func (k PartyKind) String() string {
	return string(k)
}

// PartyStatus represents the status of a party
type PartyStatus string

const (
	PartyStatusActive   PartyStatus = "active"
	PartyStatusInactive PartyStatus = "inactive"
)

// IsValid returns true if the status is known
func (s PartyStatus) IsValid() bool {
	return s == PartyStatusActive || s == PartyStatusInactive
}

// ContactInfo holds how to reach a party
type ContactInfo struct {
	Phone   string
	Email   string
	Address string
}

// Party is a customer or supplier with a running ledger balance.
// Balance, EntrySeq and LastEntryAt are maintained only by Post so the party
// row always agrees with the latest ledger entry.
type Party struct {
	shared.BaseAggregateRoot
	Kind        PartyKind
	Name        string
	Contact     ContactInfo
	Notes       string
	CreditLimit decimal.Decimal
	Status      PartyStatus
	Balance     decimal.Decimal
	EntrySeq    int64
	LastEntryAt time.Time
}

// NewParty creates a new active party with a zero balance
func NewParty(kind PartyKind, name string, creditLimit decimal.Decimal) (*Party, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown party kind %q", kind)
	}
	name, err := validatePartyName(name)
	if err != nil {
		return nil, err
	}
	if creditLimit.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount,
			"credit limit cannot be negative, got %s", creditLimit.String())
	}

	p := &Party{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Name:              name,
		CreditLimit:       valueobject.IQD.Round(creditLimit),
		Status:            PartyStatusActive,
		Balance:           decimal.Zero,
	}
	p.AddDomainEvent(NewPartyCreatedEvent(p))
	return p, nil
}

// NewCustomer creates a new customer
func NewCustomer(name string, creditLimit decimal.Decimal) (*Party, error) {
	return NewParty(PartyKindCustomer, name, creditLimit)
}

// NewSupplier creates a new supplier
func NewSupplier(name string, creditLimit decimal.Decimal) (*Party, error) {
	return NewParty(PartyKindSupplier, name, creditLimit)
}

func validatePartyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError(shared.CodeMissingField, "party name is required")
	}
	if len(name) > 200 {
		return "", shared.NewValidationError(shared.CodeInvalidInput, "party name cannot exceed 200 characters")
	}
	return name, nil
}

// Update replaces the descriptive fields of the party
func (p *Party) Update(name string, contact ContactInfo, notes string) error {
	name, err := validatePartyName(name)
	if err != nil {
		return err
	}
	p.Name = name
	p.Contact = ContactInfo{
		Phone:   strings.TrimSpace(contact.Phone),
		Email:   strings.TrimSpace(contact.Email),
		Address: strings.TrimSpace(contact.Address),
	}
	p.Notes = notes
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetCreditLimit sets the credit limit. Zero means no limit.
func (p *Party) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidAmount,
			"credit limit cannot be negative, got %s", limit.String())
	}
	p.CreditLimit = valueobject.IQD.Round(limit)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetStatus switches the party between active and inactive
func (p *Party) SetStatus(status PartyStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError(shared.CodeInvalidInput, "unknown party status %q", status)
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the party is active
func (p *Party) IsActive() bool {
	return p.Status == PartyStatusActive
}

// HasCreditLimit returns true if a credit limit is configured
func (p *Party) HasCreditLimit() bool {
	return p.CreditLimit.IsPositive()
}

// Interpretation returns what the current balance means for this party kind
func (p *Party) Interpretation() BalanceInterpretation {
	return InterpretBalance(p.Kind, p.Balance)
}

// Post appends a ledger entry to the party. It is the only way the balance
// changes. Entries are appended in date order: a date earlier than the last
// posted entry is rejected and the party is left unchanged.
func (p *Party) Post(entryType EntryType, delta valueobject.MoneyValue, ref Reference, at time.Time, description string) (*LedgerEntry, error) {
	if !entryType.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown ledger entry type %q", entryType)
	}
	if delta.IQD().IsZero() && delta.USD().IsZero() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "ledger entry amount cannot be zero")
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	if !p.LastEntryAt.IsZero() && at.Before(p.LastEntryAt) {
		return nil, shared.NewValidationError(shared.CodeBackdatedEntry,
			"entry date %s is before the last ledger entry on %s",
			at.Format(time.DateOnly), p.LastEntryAt.Format(time.DateOnly)).
			WithDetail("party_id", p.ID.String()).
			WithDetail("last_entry_date", p.LastEntryAt.Format(time.RFC3339))
	}

	p.EntrySeq++
	p.Balance = p.Balance.Add(delta.IQD())
	p.LastEntryAt = at
	p.Touch()
	p.IncrementVersion()

	entry := &LedgerEntry{
		ID:             uuid.New(),
		PartyID:        p.ID,
		Sequence:       p.EntrySeq,
		EntryDate:      at,
		Type:           entryType,
		AmountDelta:    delta.IQD(),
		AmountDeltaUSD: delta.USD(),
		BalanceAfter:   p.Balance,
		Reference:      ref,
		Description:    description,
		CreatedAt:      time.Now(),
	}
	p.AddDomainEvent(NewLedgerEntryPostedEvent(p, entry))
	return entry, nil
}

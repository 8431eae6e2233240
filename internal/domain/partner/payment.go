package partner

import (
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// MethodKind is the discriminant of a PaymentMethod
type MethodKind string

const (
	MethodCash         MethodKind = "cash"
	MethodBankTransfer MethodKind = "bank_transfer"
	MethodCheque       MethodKind = "cheque"
)

// PaymentMethod is how a payment was made. The variants carry exactly the
// fields their method requires, so a constructed method is always complete.
type PaymentMethod interface {
	Kind() MethodKind
	paymentMethod()
}

// Cash is a cash payment
type Cash struct{}

// BankTransfer is a payment by bank transfer
type BankTransfer struct {
	BankName string
}

// Cheque is a payment by cheque
type Cheque struct {
	BankName     string
	ChequeNumber string
	ChequeDate   time.Time
}

func (Cash) Kind() MethodKind         { return MethodCash }
func (BankTransfer) Kind() MethodKind { return MethodBankTransfer }
func (Cheque) Kind() MethodKind       { return MethodCheque }

func (Cash) paymentMethod()         {}
func (BankTransfer) paymentMethod() {}
func (Cheque) paymentMethod()       {}

// MethodDetails is the flat form of a PaymentMethod as it arrives from a
// request or a database row.
type MethodDetails struct {
	Kind         MethodKind
	BankName     string
	ChequeNumber string
	ChequeDate   *time.Time
}

// NewPaymentMethod builds the variant for the flat details, checking the
// fields each method requires.
func NewPaymentMethod(d MethodDetails) (PaymentMethod, error) {
	bank := strings.TrimSpace(d.BankName)
	switch d.Kind {
	case MethodCash:
		return Cash{}, nil
	case MethodBankTransfer:
		if bank == "" {
			return nil, shared.NewValidationError(shared.CodeMissingField,
				"bank name is required for bank transfer payments").WithDetail("field", "bank_name")
		}
		return BankTransfer{BankName: bank}, nil
	case MethodCheque:
		if bank == "" {
			return nil, shared.NewValidationError(shared.CodeMissingField,
				"bank name is required for cheque payments").WithDetail("field", "bank_name")
		}
		number := strings.TrimSpace(d.ChequeNumber)
		if number == "" {
			return nil, shared.NewValidationError(shared.CodeMissingField,
				"cheque number is required for cheque payments").WithDetail("field", "cheque_number")
		}
		if d.ChequeDate == nil || d.ChequeDate.IsZero() {
			return nil, shared.NewValidationError(shared.CodeMissingField,
				"cheque date is required for cheque payments").WithDetail("field", "cheque_date")
		}
		return Cheque{BankName: bank, ChequeNumber: number, ChequeDate: d.ChequeDate.UTC()}, nil
	default:
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown payment method %q", d.Kind)
	}
}

// DescribeMethod flattens a PaymentMethod
func DescribeMethod(m PaymentMethod) MethodDetails {
	switch v := m.(type) {
	case BankTransfer:
		return MethodDetails{Kind: MethodBankTransfer, BankName: v.BankName}
	case Cheque:
		date := v.ChequeDate
		return MethodDetails{Kind: MethodCheque, BankName: v.BankName, ChequeNumber: v.ChequeNumber, ChequeDate: &date}
	default:
		return MethodDetails{Kind: MethodCash}
	}
}

// Payment is money received from a customer or paid to a supplier
type Payment struct {
	shared.BaseAggregateRoot
	PartyID   uuid.UUID
	PartyKind PartyKind
	Amount    valueobject.MoneyValue
	Method    PaymentMethod
	Date      time.Time
	Notes     string
}

// NewPayment creates a payment. Both currency components must be positive.
func NewPayment(party *Party, amount valueobject.MoneyValue, method PaymentMethod, date time.Time, notes string) (*Payment, error) {
	if party == nil {
		return nil, shared.NewValidationError(shared.CodeMissingField, "payment party is required")
	}
	if err := validatePaymentAmount(amount); err != nil {
		return nil, err
	}
	if method == nil {
		return nil, shared.NewValidationError(shared.CodeMissingField, "payment method is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartyID:           party.ID,
		PartyKind:         party.Kind,
		Amount:            amount.Round(),
		Method:            method,
		Date:              date.UTC(),
		Notes:             notes,
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

func validatePaymentAmount(amount valueobject.MoneyValue) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidAmount,
			"payment amount must be greater than zero in both currencies, got %s", amount.String())
	}
	return nil
}

// Update replaces the payment's fields and returns the ledger delta the
// change implies, i.e. the negated difference of amounts.
func (p *Payment) Update(amount valueobject.MoneyValue, method PaymentMethod, date time.Time, notes string) (valueobject.MoneyValue, error) {
	if err := validatePaymentAmount(amount); err != nil {
		return valueobject.MoneyValue{}, err
	}
	if method == nil {
		return valueobject.MoneyValue{}, shared.NewValidationError(shared.CodeMissingField, "payment method is required")
	}
	amount = amount.Round()
	delta := p.Amount.Subtract(amount)

	p.Amount = amount
	p.Method = method
	if !date.IsZero() {
		p.Date = date.UTC()
	}
	p.Notes = notes
	p.Touch()
	p.IncrementVersion()
	return delta, nil
}

// ReferenceOf returns the ledger reference of the payment
func (p *Payment) ReferenceOf() Reference {
	return Reference{Type: ReferenceTypePayment, ID: p.ID}
}

package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the kind of event a ledger entry records
type EntryType string

const (
	EntryTypeSale     EntryType = "sale"
	EntryTypePurchase EntryType = "purchase"
	EntryTypePayment  EntryType = "payment"
	EntryTypeReturn   EntryType = "return"
)

// IsValid returns true if the entry type is known
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeSale, EntryTypePurchase, EntryTypePayment, EntryTypeReturn:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// ReferenceType identifies the source record of a ledger entry
type ReferenceType string

const (
	ReferenceTypeSale     ReferenceType = "sale"
	ReferenceTypePurchase ReferenceType = "purchase"
	ReferenceTypePayment  ReferenceType = "payment"
	ReferenceTypeReturn   ReferenceType = "return"
)

// Reference points from a ledger entry to the record that caused it
type Reference struct {
	Type   ReferenceType
	ID     uuid.UUID
	Number string
}

// LedgerEntry is an immutable record of one balance change. AmountDelta is
// in IQD; AmountDeltaUSD carries the dollar component captured with it.
// BalanceAfter of entry n equals BalanceAfter of entry n-1 plus AmountDelta.
type LedgerEntry struct {
	ID             uuid.UUID
	PartyID        uuid.UUID
	Sequence       int64
	EntryDate      time.Time
	Type           EntryType
	AmountDelta    decimal.Decimal
	AmountDeltaUSD decimal.Decimal
	BalanceAfter   decimal.Decimal
	Reference      Reference
	Description    string
	CreatedAt      time.Time
}

// BalanceBefore returns the balance prior to this entry
func (e LedgerEntry) BalanceBefore() decimal.Decimal {
	return e.BalanceAfter.Sub(e.AmountDelta)
}

// IsDebit returns true if the entry increased the balance
func (e LedgerEntry) IsDebit() bool {
	return e.AmountDelta.IsPositive()
}

package partner

import (
	"context"
	"iter"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultHistoryBatchSize is how many entries History reads per query
const DefaultHistoryBatchSize = 200

// AccountLedger posts signed entries to a party's ledger and reads it back.
// Both party kinds store the amount currently owed to the ledger owner:
// sales and purchases add, payments and returns subtract.
//
// Postings load the party, append through Party.Post and save the party with
// an optimistic version check, so two writers on one party cannot both win.
// Callers run postings inside a transaction together with the document and
// stock changes they belong to.
type AccountLedger struct {
	parties   PartyRepository
	entries   LedgerEntryRepository
	now       func() time.Time
	batchSize int
	events    []shared.DomainEvent
}

// NewAccountLedger creates an AccountLedger over the given repositories
func NewAccountLedger(parties PartyRepository, entries LedgerEntryRepository) *AccountLedger {
	return &AccountLedger{
		parties:   parties,
		entries:   entries,
		now:       time.Now,
		batchSize: DefaultHistoryBatchSize,
	}
}

// WithClock replaces the clock used when an entry has no date
func (l *AccountLedger) WithClock(now func() time.Time) *AccountLedger {
	l.now = now
	return l
}

// WithBatchSize sets the page size History uses
func (l *AccountLedger) WithBatchSize(n int) *AccountLedger {
	if n > 0 {
		l.batchSize = n
	}
	return l
}

// Posting describes one ledger write
type Posting struct {
	PartyID     uuid.UUID
	Amount      valueobject.MoneyValue
	Reference   Reference
	Date        time.Time
	Description string
}

// PostSale records a completed sale: the customer owes the total
func (l *AccountLedger) PostSale(ctx context.Context, p Posting) (*LedgerEntry, error) {
	if err := requirePositive(p.Amount, "sale total"); err != nil {
		return nil, err
	}
	return l.post(ctx, PartyKindCustomer, EntryTypeSale, p, p.Amount)
}

// PostPurchase records a completed purchase: the business owes the supplier the total
func (l *AccountLedger) PostPurchase(ctx context.Context, p Posting) (*LedgerEntry, error) {
	if err := requirePositive(p.Amount, "purchase total"); err != nil {
		return nil, err
	}
	return l.post(ctx, PartyKindSupplier, EntryTypePurchase, p, p.Amount)
}

// PostPayment records money settled with the party, reducing the balance
func (l *AccountLedger) PostPayment(ctx context.Context, p Posting) (*LedgerEntry, error) {
	if err := requirePositive(p.Amount, "payment amount"); err != nil {
		return nil, err
	}
	return l.post(ctx, "", EntryTypePayment, p, p.Amount.Negate())
}

// PostPaymentCorrection records a change to an existing payment. Amount is
// the signed balance delta; a deleted payment posts its amount back.
func (l *AccountLedger) PostPaymentCorrection(ctx context.Context, p Posting) (*LedgerEntry, error) {
	if p.Amount.IQD().IsZero() && p.Amount.USD().IsZero() {
		return nil, nil
	}
	return l.post(ctx, "", EntryTypePayment, p, p.Amount)
}

// PostReturn records the reversal of returned goods, reducing the balance by
// the reversal priced from the original document lines
func (l *AccountLedger) PostReturn(ctx context.Context, p Posting) (*LedgerEntry, error) {
	if err := requirePositive(p.Amount, "return reversal"); err != nil {
		return nil, err
	}
	return l.post(ctx, "", EntryTypeReturn, p, p.Amount.Negate())
}

func requirePositive(amount valueobject.MoneyValue, what string) error {
	if !amount.IQD().IsPositive() || amount.USD().IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidAmount,
			"%s must be greater than zero, got %s", what, amount.String())
	}
	return nil
}

func (l *AccountLedger) post(ctx context.Context, kind PartyKind, entryType EntryType, p Posting, delta valueobject.MoneyValue) (*LedgerEntry, error) {
	var (
		party *Party
		err   error
	)
	if kind != "" {
		party, err = l.parties.FindByIDAndKind(ctx, p.PartyID, kind)
	} else {
		party, err = l.parties.FindByID(ctx, p.PartyID)
	}
	if err != nil {
		return nil, err
	}

	date := p.Date
	if date.IsZero() {
		date = l.now()
	}
	entry, err := party.Post(entryType, delta, p.Reference, date, p.Description)
	if err != nil {
		return nil, err
	}
	if err := l.parties.SaveWithLock(ctx, party); err != nil {
		return nil, err
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return nil, err
	}
	l.events = append(l.events, party.GetDomainEvents()...)
	party.ClearDomainEvents()
	return entry, nil
}

// DrainEvents returns and clears the events raised by postings so far
func (l *AccountLedger) DrainEvents() []shared.DomainEvent {
	out := l.events
	l.events = nil
	return out
}

// CurrentBalance returns the balance after the latest entry, or zero
func (l *AccountLedger) CurrentBalance(ctx context.Context, partyID uuid.UUID) (decimal.Decimal, error) {
	latest, err := l.entries.FindLatest(ctx, partyID)
	if err != nil {
		return decimal.Zero, err
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.BalanceAfter, nil
}

// History returns the party's entries ascending by date then sequence.
// Nothing is read until the sequence is ranged over, and every range issues
// fresh queries, so the same sequence can be consumed more than once.
func (l *AccountLedger) History(ctx context.Context, partyID uuid.UUID, q HistoryQuery) iter.Seq2[LedgerEntry, error] {
	return func(yield func(LedgerEntry, error) bool) {
		var after int64
		remaining := q.Limit
		for {
			size := l.batchSize
			if remaining > 0 && remaining < size {
				size = remaining
			}
			page, err := l.entries.FindPage(ctx, partyID, q, after, size)
			if err != nil {
				yield(LedgerEntry{}, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				after = e.Sequence
				if remaining > 0 {
					remaining--
					if remaining == 0 {
						return
					}
				}
			}
			if len(page) < size {
				return
			}
		}
	}
}

// CollectHistory drains a History sequence into a slice
func CollectHistory(seq iter.Seq2[LedgerEntry, error]) ([]LedgerEntry, error) {
	out := make([]LedgerEntry, 0)
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

package partner

import (
	"context"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByID finds a party by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)

	// FindByIDAndKind finds a party by ID, treating a kind mismatch as not found
	FindByIDAndKind(ctx context.Context, id uuid.UUID, kind PartyKind) (*Party, error)

	// FindAll lists parties of a kind. filter.Filters may carry "status".
	FindAll(ctx context.Context, kind PartyKind, filter shared.Filter) ([]Party, int64, error)

	// Save inserts a new party
	Save(ctx context.Context, party *Party) error

	// SaveWithLock updates a party only if the stored version is party.Version-1
	SaveWithLock(ctx context.Context, party *Party) error

	// Delete removes a party; its ledger entries and payments go with it
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryQuery filters a ledger history read
type HistoryQuery struct {
	Range  shared.DateRange
	Search string
	// Limit caps the number of entries; zero means no cap
	Limit int
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Append inserts an entry. Entries are never updated.
	Append(ctx context.Context, entry *LedgerEntry) error

	// FindLatest returns the most recent entry for a party, or nil
	FindLatest(ctx context.Context, partyID uuid.UUID) (*LedgerEntry, error)

	// FindPage returns up to size entries with Sequence > afterSeq matching q,
	// ascending by date then sequence
	FindPage(ctx context.Context, partyID uuid.UUID, q HistoryQuery, afterSeq int64, size int) ([]LedgerEntry, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll lists payments of a party kind, optionally for one party
	FindAll(ctx context.Context, kind PartyKind, partyID *uuid.UUID, filter shared.Filter) ([]Payment, int64, error)

	// Save inserts or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error
}

package trade

import (
	"context"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentRepository defines the interface for sale and purchase persistence
type DocumentRepository interface {
	// FindByID finds a document of a kind with its lines
	FindByID(ctx context.Context, kind DocumentKind, id uuid.UUID) (*Document, error)

	// FindAll lists documents of a kind. filter.Filters may carry
	// "party_id", "status", "start_date" and "end_date".
	FindAll(ctx context.Context, kind DocumentKind, filter shared.Filter) ([]Document, int64, error)

	// Save inserts a new document with its lines
	Save(ctx context.Context, doc *Document) error

	// SaveWithLock updates a document and replaces its lines, only if the
	// stored version is doc.Version-1
	SaveWithLock(ctx context.Context, doc *Document) error

	// Delete removes a document and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByParty counts documents that reference a party
	CountByParty(ctx context.Context, partyID uuid.UUID) (int64, error)

	// CountByProduct counts document lines that reference a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// SummarizeByParty totals a party's completed and returned documents
	SummarizeByParty(ctx context.Context, partyID uuid.UUID) (*PartySummary, error)
}

// PartySummary aggregates the documents of one party
type PartySummary struct {
	DocumentCount  int64
	Total          valueobject.MoneyValue
	LastDocumentAt *time.Time
}

// ReturnRepository defines the interface for return persistence
type ReturnRepository interface {
	// FindByDocument lists the returns recorded against a document, oldest first
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Return, error)

	// Save inserts a return with its items
	Save(ctx context.Context, ret *Return) error
}

// NumberSequence hands out the running number for invoice numbers that
// share a prefix
type NumberSequence interface {
	// NextSequence returns one more than the count of numbers starting with prefix
	NextSequence(ctx context.Context, series NumberSeries, prefix string) (int64, error)
}

package txn

import (
	"context"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every repository within a transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	Parties() partner.PartyRepository
	LedgerEntries() partner.LedgerEntryRepository
	Payments() partner.PaymentRepository
	Products() inventory.ProductRepository
	StockMovements() inventory.StockMovementRepository
	Documents() trade.DocumentRepository
	Returns() trade.ReturnRepository
	NumberSequence() trade.NumberSequence
	ExchangeRates() currency.ExchangeRateRepository
}

// StaticRepositories is a fixed set of repositories
type StaticRepositories struct {
	PartyRepo         partner.PartyRepository
	LedgerEntryRepo   partner.LedgerEntryRepository
	PaymentRepo       partner.PaymentRepository
	ProductRepo       inventory.ProductRepository
	StockMovementRepo inventory.StockMovementRepository
	DocumentRepo      trade.DocumentRepository
	ReturnRepo        trade.ReturnRepository
	Sequence          trade.NumberSequence
	ExchangeRateRepo  currency.ExchangeRateRepository
}

func (r *StaticRepositories) Parties() partner.PartyRepository               { return r.PartyRepo }
func (r *StaticRepositories) LedgerEntries() partner.LedgerEntryRepository   { return r.LedgerEntryRepo }
func (r *StaticRepositories) Payments() partner.PaymentRepository            { return r.PaymentRepo }
func (r *StaticRepositories) Products() inventory.ProductRepository          { return r.ProductRepo }
func (r *StaticRepositories) StockMovements() inventory.StockMovementRepository {
	return r.StockMovementRepo
}
func (r *StaticRepositories) Documents() trade.DocumentRepository            { return r.DocumentRepo }
func (r *StaticRepositories) Returns() trade.ReturnRepository                { return r.ReturnRepo }
func (r *StaticRepositories) NumberSequence() trade.NumberSequence           { return r.Sequence }
func (r *StaticRepositories) ExchangeRates() currency.ExchangeRateRepository { return r.ExchangeRateRepo }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ Repositories = (*StaticRepositories)(nil)

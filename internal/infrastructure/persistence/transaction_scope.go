package persistence

import (
	"context"

	"github.com/dinarbooks/backend/internal/application/txn"
	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements txn.TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// GormRepositories hands out every repository over one *gorm.DB, which is
// either the pool or an open transaction.
type GormRepositories struct {
	db *gorm.DB
}

// NewRepositories creates the repository set over db
func NewRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{db: db}
}

// Parties returns the party repository
func (r *GormRepositories) Parties() partner.PartyRepository {
	return NewGormPartyRepository(r.db)
}

// LedgerEntries returns the ledger entry repository
func (r *GormRepositories) LedgerEntries() partner.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.db)
}

// Payments returns the payment repository
func (r *GormRepositories) Payments() partner.PaymentRepository {
	return NewGormPaymentRepository(r.db)
}

// Products returns the product repository
func (r *GormRepositories) Products() inventory.ProductRepository {
	return NewGormProductRepository(r.db)
}

// StockMovements returns the stock movement repository
func (r *GormRepositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.db)
}

// Documents returns the document repository
func (r *GormRepositories) Documents() trade.DocumentRepository {
	return NewGormDocumentRepository(r.db)
}

// Returns returns the return repository
func (r *GormRepositories) Returns() trade.ReturnRepository {
	return NewGormReturnRepository(r.db)
}

// NumberSequence returns the invoice number sequence
func (r *GormRepositories) NumberSequence() trade.NumberSequence {
	return NewGormNumberSequence(r.db)
}

// ExchangeRates returns the exchange rate repository
func (r *GormRepositories) ExchangeRates() currency.ExchangeRateRepository {
	return NewGormExchangeRateRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ txn.TransactionScope = (*GormTransactionScope)(nil)

// Ensure GormRepositories implements Repositories
var _ txn.Repositories = (*GormRepositories)(nil)

// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - currency.go: the append-only exchange rate table
// - partner.go: parties, their ledger entries and payments
// - inventory.go: products and the stock movement log
// - trade.go: documents with their lines, returns with their items
package models

// All lists every model in dependency order, for schema setup in tests
func All() []any {
	return []any{
		&ExchangeRateModel{},
		&PartyModel{},
		&LedgerEntryModel{},
		&PaymentModel{},
		&ProductModel{},
		&StockMovementModel{},
		&DocumentModel{},
		&DocumentItemModel{},
		&ReturnModel{},
		&ReturnItemModel{},
	}
}

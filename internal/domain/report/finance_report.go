package report

import (
	"context"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BalanceTotals sums party balances. Receivables are positive customer
// balances; payables are the sum of supplier balances.
type BalanceTotals struct {
	Receivables decimal.Decimal `json:"receivables"`
	Payables    decimal.Decimal `json:"payables"`
}

// ProfitLoss compares net sales with net purchases over a period, per currency.
// Revenue is sales less sales returns; expenses are purchases less purchase returns.
type ProfitLoss struct {
	PeriodStart     time.Time              `json:"period_start"`
	PeriodEnd       time.Time              `json:"period_end"`
	GrossSales      valueobject.MoneyValue `json:"gross_sales"`
	SalesReturns    valueobject.MoneyValue `json:"sales_returns"`
	Revenue         valueobject.MoneyValue `json:"revenue"`
	GrossPurchases  valueobject.MoneyValue `json:"gross_purchases"`
	PurchaseReturns valueobject.MoneyValue `json:"purchase_returns"`
	Expenses        valueobject.MoneyValue `json:"expenses"`
	NetProfit       valueobject.MoneyValue `json:"net_profit"`
}

// NewProfitLoss nets returns off both sides
func NewProfitLoss(start, end time.Time, sales, salesReturns, purchases, purchaseReturns valueobject.MoneyValue) *ProfitLoss {
	revenue := sales.Subtract(salesReturns)
	expenses := purchases.Subtract(purchaseReturns)
	return &ProfitLoss{
		PeriodStart:     start,
		PeriodEnd:       end,
		GrossSales:      sales,
		SalesReturns:    salesReturns,
		Revenue:         revenue,
		GrossPurchases:  purchases,
		PurchaseReturns: purchaseReturns,
		Expenses:        expenses,
		NetProfit:       revenue.Subtract(expenses),
	}
}

// Repository answers the read-only report queries
type Repository interface {
	// Summarize totals completed and returned documents of filter.Kind in the period
	Summarize(ctx context.Context, filter Filter) (*DocumentSummary, error)

	// DailyTrend returns per-day totals, oldest day first
	DailyTrend(ctx context.Context, filter Filter) ([]DailyTrend, error)

	// TopProducts ranks products by quantity on documents of filter.Kind
	TopProducts(ctx context.Context, filter Filter) ([]ProductRanking, error)

	// PartyAnalysis ranks the parties of filter.Kind's documents by total
	PartyAnalysis(ctx context.Context, filter Filter) ([]PartyRanking, error)

	// StockLevels lists every product's current stock
	StockLevels(ctx context.Context) ([]StockLevel, error)

	// Balances sums outstanding customer and supplier balances
	Balances(ctx context.Context) (*BalanceTotals, error)

	// ReturnTotals sums the reversals of returns against filter.Kind documents dated in the period
	ReturnTotals(ctx context.Context, filter Filter) (valueobject.MoneyValue, error)

	// MovementLog lists stock movements of every product in the period
	MovementLog(ctx context.Context, filter MovementFilter) ([]MovementLogEntry, error)

	// Valuations lists every product with its stock and list price
	Valuations(ctx context.Context) ([]ProductValuation, error)

	// Activity returns each product's sales and stock flow since the given instant
	Activity(ctx context.Context, since time.Time) ([]ProductActivity, error)
}

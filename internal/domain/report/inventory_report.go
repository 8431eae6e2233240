package report

import (
	"sort"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBucket classifies a product's stock level
type StockBucket string

const (
	BucketOutOfStock StockBucket = "out_of_stock"
	BucketLow        StockBucket = "low"
	BucketHealthy    StockBucket = "healthy"
)

// BucketFor classifies a stock level against the low-stock threshold
func BucketFor(stock, threshold int64) StockBucket {
	switch {
	case stock <= 0:
		return BucketOutOfStock
	case stock <= threshold:
		return BucketLow
	default:
		return BucketHealthy
	}
}

// StockLevel is one product's stock in the inventory status report
type StockLevel struct {
	ProductID    uuid.UUID   `json:"product_id"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	CurrentStock int64       `json:"current_stock"`
	Bucket       StockBucket `json:"bucket"`
}

// InventoryStatus groups products into stock buckets
type InventoryStatus struct {
	Threshold       int64        `json:"threshold"`
	TotalProducts   int64        `json:"total_products"`
	TotalUnits      int64        `json:"total_units"`
	OutOfStockCount int64        `json:"out_of_stock_count"`
	LowStockCount   int64        `json:"low_stock_count"`
	HealthyCount    int64        `json:"healthy_count"`
	OutOfStock      []StockLevel `json:"out_of_stock"`
	LowStock        []StockLevel `json:"low_stock"`
}

// Add places a product into its bucket
func (s *InventoryStatus) Add(level StockLevel) {
	level.Bucket = BucketFor(level.CurrentStock, s.Threshold)
	s.TotalProducts++
	s.TotalUnits += level.CurrentStock
	switch level.Bucket {
	case BucketOutOfStock:
		s.OutOfStockCount++
		s.OutOfStock = append(s.OutOfStock, level)
	case BucketLow:
		s.LowStockCount++
		s.LowStock = append(s.LowStock, level)
	default:
		s.HealthyCount++
	}
}

// MovementFilter bounds the cross-product movement log. Empty fields do not filter.
type MovementFilter struct {
	StartDate time.Time
	EndDate   time.Time
	ProductID *uuid.UUID
	Direction string
	Reason    string
	Limit     int
}

// MovementLogEntry is one stock movement with its product
type MovementLogEntry struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	ProductSKU      string     `json:"product_sku"`
	ProductName     string     `json:"product_name"`
	Sequence        int64      `json:"sequence"`
	MovementDate    time.Time  `json:"movement_date"`
	Type            string     `json:"type"`
	Reason          string     `json:"reason"`
	Quantity        int64      `json:"quantity"`
	BalanceAfter    int64      `json:"balance_after"`
	ReferenceType   string     `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// ProductValuation is a product's stock valued at its list price
type ProductValuation struct {
	ProductID    uuid.UUID              `json:"product_id"`
	SKU          string                 `json:"sku"`
	Name         string                 `json:"name"`
	CurrentStock int64                  `json:"current_stock"`
	UnitPrice    valueobject.MoneyValue `json:"unit_price"`
	StockValue   valueobject.MoneyValue `json:"stock_value"`
}

// InventoryValuation totals the stock value of every product
type InventoryValuation struct {
	TotalProducts int64                  `json:"total_products"`
	TotalUnits    int64                  `json:"total_units"`
	TotalValue    valueobject.MoneyValue `json:"total_value"`
	Products      []ProductValuation     `json:"products"`
}

// NewInventoryValuation values each product and orders them by IQD value, highest first
func NewInventoryValuation(products []ProductValuation) *InventoryValuation {
	v := &InventoryValuation{TotalValue: valueobject.ZeroMoney(), Products: make([]ProductValuation, 0, len(products))}
	for _, p := range products {
		p.StockValue = p.UnitPrice.Scale(p.CurrentStock).Round()
		v.TotalProducts++
		v.TotalUnits += p.CurrentStock
		v.TotalValue = v.TotalValue.Add(p.StockValue)
		v.Products = append(v.Products, p)
	}
	sort.SliceStable(v.Products, func(i, j int) bool {
		return v.Products[i].StockValue.IQD().GreaterThan(v.Products[j].StockValue.IQD())
	})
	return v
}

// ProductActivity is what happened to a product's stock since a start date
type ProductActivity struct {
	ProductID    uuid.UUID
	SKU          string
	Name         string
	CurrentStock int64
	UnitsSold    int64
	UnitsIn      int64
	UnitsOut     int64
}

// ProductTurnover is units sold over the average of opening and closing stock
type ProductTurnover struct {
	ProductID        uuid.UUID       `json:"product_id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	UnitsSold        int64           `json:"units_sold"`
	OpeningStock     int64           `json:"opening_stock"`
	ClosingStock     int64           `json:"closing_stock"`
	AverageInventory decimal.Decimal `json:"average_inventory"`
	TurnoverRate     decimal.Decimal `json:"turnover_rate"`
}

// TurnoverFor derives turnover from activity. Opening stock is the current
// stock with the period's movements undone; a zero average gives a zero rate.
func TurnoverFor(a ProductActivity) ProductTurnover {
	opening := a.CurrentStock - a.UnitsIn + a.UnitsOut
	average := decimal.NewFromInt(opening + a.CurrentStock).Div(decimal.NewFromInt(2))
	rate := decimal.Zero
	if average.IsPositive() {
		rate = decimal.NewFromInt(a.UnitsSold).DivRound(average, 2)
	}
	return ProductTurnover{
		ProductID:        a.ProductID,
		SKU:              a.SKU,
		Name:             a.Name,
		UnitsSold:        a.UnitsSold,
		OpeningStock:     opening,
		ClosingStock:     a.CurrentStock,
		AverageInventory: average,
		TurnoverRate:     rate,
	}
}

// InventoryTurnover lists product turnover for a trailing window, fastest first
type InventoryTurnover struct {
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
	Products    []ProductTurnover `json:"products"`
}

package report

import (
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketOutOfStock, BucketFor(0, 10))
	assert.Equal(t, BucketLow, BucketFor(1, 10))
	assert.Equal(t, BucketLow, BucketFor(10, 10))
	assert.Equal(t, BucketHealthy, BucketFor(11, 10))
}

func TestInventoryStatus_Add(t *testing.T) {
	s := &InventoryStatus{Threshold: 5}
	for _, stock := range []int64{0, 3, 5, 20, 40} {
		s.Add(StockLevel{CurrentStock: stock})
	}
	assert.Equal(t, int64(5), s.TotalProducts)
	assert.Equal(t, int64(68), s.TotalUnits)
	assert.Equal(t, int64(1), s.OutOfStockCount)
	assert.Equal(t, int64(2), s.LowStockCount)
	assert.Equal(t, int64(2), s.HealthyCount)
	assert.Len(t, s.LowStock, 2)
	assert.Equal(t, BucketLow, s.LowStock[0].Bucket)
}

func TestNewProfitLoss(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	pl := NewProfitLoss(start, end,
		valueobject.NewMoneyValueFromInts(500000, 38000),
		valueobject.NewMoneyValueFromInts(20000, 1500),
		valueobject.NewMoneyValueFromInts(300000, 23000),
		valueobject.NewMoneyValueFromInts(10000, 800),
	)
	assert.Equal(t, "480000", pl.Revenue.IQD().String())
	assert.Equal(t, "365", pl.Revenue.USD().String())
	assert.Equal(t, "290000", pl.Expenses.IQD().String())
	assert.Equal(t, "190000", pl.NetProfit.IQD().String())
	assert.Equal(t, "143", pl.NetProfit.USD().String())
	assert.Equal(t, start, pl.PeriodStart)
}

func TestTurnoverFor(t *testing.T) {
	tests := []struct {
		name        string
		activity    ProductActivity
		wantOpening int64
		wantAverage string
		wantRate    string
	}{
		{"sold down from a delivery", ProductActivity{CurrentStock: 20, UnitsSold: 60, UnitsIn: 50, UnitsOut: 60}, 30, "25", "2.4"},
		{"no movement", ProductActivity{CurrentStock: 10}, 10, "10", "0"},
		{"never stocked", ProductActivity{}, 0, "0", "0"},
		{"rate rounds to cents", ProductActivity{CurrentStock: 2, UnitsSold: 1, UnitsOut: 1}, 3, "2.5", "0.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TurnoverFor(tt.activity)
			assert.Equal(t, tt.wantOpening, got.OpeningStock)
			assert.Equal(t, tt.activity.CurrentStock, got.ClosingStock)
			assert.True(t, got.AverageInventory.Equal(decimal.RequireFromString(tt.wantAverage)), "average %s", got.AverageInventory)
			assert.True(t, got.TurnoverRate.Equal(decimal.RequireFromString(tt.wantRate)), "rate %s", got.TurnoverRate)
		})
	}
}

func TestNewInventoryValuation(t *testing.T) {
	v := NewInventoryValuation([]ProductValuation{
		{SKU: "TEA", CurrentStock: 4, UnitPrice: valueobject.NewMoneyValue(decimal.NewFromInt(6500), decimal.RequireFromString("4.96"))},
		{SKU: "RICE", CurrentStock: 10, UnitPrice: valueobject.NewMoneyValueFromInts(9000, 700)},
		{SKU: "EMPTY", CurrentStock: 0, UnitPrice: valueobject.NewMoneyValueFromInts(1000, 100)},
	})
	require.Len(t, v.Products, 3)
	assert.Equal(t, []string{"RICE", "TEA", "EMPTY"}, []string{v.Products[0].SKU, v.Products[1].SKU, v.Products[2].SKU})
	assert.Equal(t, "26000", v.Products[1].StockValue.IQD().String())
	assert.Equal(t, "19.84", v.Products[1].StockValue.USD().String())
	assert.Equal(t, int64(14), v.TotalUnits)
	assert.Equal(t, "116000", v.TotalValue.IQD().String())
	assert.Equal(t, "89.84", v.TotalValue.USD().String())
}

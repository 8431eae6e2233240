package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func saveProduct(t *testing.T, db *gorm.DB, sku, name string, stock int64) *inventory.Product {
	t.Helper()
	ctx := context.Background()
	p, err := inventory.NewProduct(sku, name, valueobject.NewMoneyValueFromInts(13100, 1000))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(ctx, p))
	if stock > 0 {
		tracker := inventory.NewStockLevelTracker(NewGormProductRepository(db), NewGormStockMovementRepository(db))
		_, err := tracker.Increase(ctx, inventory.StockChange{ProductID: p.ID, Quantity: stock, Reason: inventory.ReasonInitial})
		require.NoError(t, err)
		p, err = NewGormProductRepository(db).FindByID(ctx, p.ID)
		require.NoError(t, err)
	}
	return p
}

func TestGormProductRepository_RoundTrip(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p, err := inventory.NewProduct("TEA-500", "Ceylon tea 500g", valueobject.NewMoneyValue(
		decimal.NewFromInt(6500), decimal.RequireFromString("4.96")))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "TEA-500", got.SKU)
	assert.Equal(t, "Ceylon tea 500g", got.Name)
	assert.True(t, got.Price.Equals(p.Price), "price %s", got.Price)
	assert.Zero(t, got.CurrentStock)
	assert.Equal(t, p.Version, got.Version)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	t.Run("sku uniqueness check excludes the product itself", func(t *testing.T) {
		exists, err := repo.ExistsBySKU(ctx, "TEA-500", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySKU(ctx, "TEA-500", p.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsBySKU(ctx, "COFFEE-1", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update with lock", func(t *testing.T) {
		require.NoError(t, got.Update("TEA-500", "Ceylon tea 500 g", "loose leaf", got.Price))
		require.NoError(t, repo.SaveWithLock(ctx, got))

		again, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ceylon tea 500 g", again.Name)
		assert.Equal(t, "loose leaf", again.Description)

		stale := *p
		require.NoError(t, stale.Update("TEA-500", "stale", "", stale.Price))
		err = repo.SaveWithLock(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormProductRepository_ListAndLowStock(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	saveProduct(t, db, "RICE-5", "Basmati rice 5kg", 80)
	sugar := saveProduct(t, db, "SUGAR-1", "Sugar 1kg", 4)
	oil := saveProduct(t, db, "OIL-1", "Sunflower oil 1L", 0)

	products, total, err := repo.FindAll(ctx, shared.Filter{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 3)
	assert.Equal(t, "Basmati rice 5kg", products[0].Name)

	products, total, err = repo.FindAll(ctx, shared.Filter{Search: "sugar", PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, sugar.ID, products[0].ID)

	low, total, err := repo.FindLowStock(ctx, 10, shared.Filter{PageSize: 10, OrderBy: "name", OrderDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, low, 2)
	assert.Equal(t, oil.ID, low[0].ID, "lowest stock first regardless of requested order")
	assert.Equal(t, sugar.ID, low[1].ID)

	found, err := repo.FindByIDs(ctx, []uuid.UUID{oil.ID, sugar.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestStockLevelTracker_OverSQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	p := saveProduct(t, db, "PEN-BLUE", "Blue pen", 50)

	tracker := inventory.NewStockLevelTracker(NewGormProductRepository(db), NewGormStockMovementRepository(db)).
		WithClock(testutil.FixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))

	ref := inventory.Reference{Type: "sale", ID: uuid.New(), Number: "SAL-20240601-120000-0001"}
	_, err := tracker.Decrease(ctx, inventory.StockChange{ProductID: p.ID, Quantity: 10, Reason: inventory.ReasonSale, Reference: ref})
	require.NoError(t, err)

	_, err = tracker.Decrease(ctx, inventory.StockChange{ProductID: p.ID, Quantity: 50, Reason: inventory.ReasonSale})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = tracker.Increase(ctx, inventory.StockChange{ProductID: p.ID, Quantity: 3, Reason: inventory.ReasonReturn, Reference: ref})
	require.NoError(t, err)

	stock, err := tracker.CurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(43), stock)

	movements, total, err := NewGormStockMovementRepository(db).FindByProduct(ctx, p.ID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, movements, 3)

	var sum int64
	balances := make([]int64, 0, len(movements))
	for _, m := range movements {
		sum += m.SignedQuantity()
		balances = append(balances, m.BalanceAfter)
	}
	assert.Equal(t, stock, sum)
	assert.Equal(t, []int64{50, 40, 43}, balances)
	assert.Equal(t, inventory.ReasonInitial, movements[0].Reason)
	assert.Equal(t, ref.ID, movements[1].Reference.ID)
	assert.Equal(t, "SAL-20240601-120000-0001", movements[1].Reference.Number)
	assert.True(t, movements[1].MovementDate.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		"a movement dated before the opening stock keeps its own date and its place in sequence")

	t.Run("pages movements", func(t *testing.T) {
		page, total, err := NewGormStockMovementRepository(db).FindByProduct(ctx, p.ID, shared.Filter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page, 1)
		assert.Equal(t, int64(3), page[0].Sequence)
	})
}

func TestStockLevelTracker_DecreaseAllLeavesStockUntouchedOnShortfall(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	a := saveProduct(t, db, "A-1", "Product A", 5)
	b := saveProduct(t, db, "B-1", "Product B", 1)

	tracker := inventory.NewStockLevelTracker(NewGormProductRepository(db), NewGormStockMovementRepository(db))
	_, err := tracker.DecreaseAll(ctx, []inventory.StockChange{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	stockA, err := tracker.CurrentStock(ctx, a.ID)
	require.NoError(t, err)
	stockB, err := tracker.CurrentStock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stockA)
	assert.Equal(t, int64(1), stockB)
}

func TestGormProductRepository_DeleteRemovesMovements(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	p := saveProduct(t, db, "DEL-1", "To delete", 7)

	require.NoError(t, NewGormProductRepository(db).Delete(ctx, p.ID))

	var movements int64
	require.NoError(t, db.Table("stock_movements").Where("product_id = ?", p.ID).Count(&movements).Error)
	assert.Zero(t, movements)
	assert.ErrorIs(t, NewGormProductRepository(db).Delete(ctx, p.ID), shared.ErrNotFound)
}

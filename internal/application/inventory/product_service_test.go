package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/application/event"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos    *persistence.GormRepositories
	recorder *testutil.EventRecorder
	service  *ProductService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repos := persistence.NewRepositories(db)
	recorder := testutil.NewEventRecorder()
	service := NewProductService(repos.Products(), repos.StockMovements(),
		persistence.NewGormTransactionScope(db), event.NewDispatcher(nil, recorder), nil).
		WithLowStockThreshold(5).
		WithClock(testutil.FixedClock(time.Date(2024, time.May, 2, 9, 0, 0, 0, time.UTC)))
	return &fixture{repos: repos, recorder: recorder, service: service}
}

func createRequest(sku string, stock int64) CreateProductRequest {
	return CreateProductRequest{
		SKU:          sku,
		Name:         "Paracetamol 500mg",
		PriceIQD:     decimal.NewFromInt(2500),
		PriceUSD:     decimal.RequireFromString("1.90"),
		InitialStock: stock,
	}
}

func TestProductService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, createRequest("PARA-500", 12))
	require.NoError(t, err)
	assert.Equal(t, int64(12), created.CurrentStock)
	assert.False(t, created.LowStock)
	assert.True(t, created.Price.Equals(valueobject.NewMoneyValueFromInts(2500, 190)))
	assert.Equal(t, 1, f.recorder.Count(inventory.EventTypeProductCreated))

	movements, total, err := f.service.Movements(ctx, created.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, movements, 1)
	assert.Equal(t, string(inventory.ReasonInitial), movements[0].Reason)
	assert.Equal(t, int64(12), movements[0].BalanceAfter)

	t.Run("duplicate sku", func(t *testing.T) {
		_, err := f.service.Create(ctx, createRequest("PARA-500", 0))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeSKUExists, de.Code)
	})

	t.Run("zero initial stock posts nothing", func(t *testing.T) {
		bare, err := f.service.Create(ctx, createRequest("PARA-250", 0))
		require.NoError(t, err)
		assert.True(t, bare.LowStock)
		_, total, err := f.service.Movements(ctx, bare.ID, 0, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("negative initial stock", func(t *testing.T) {
		_, err := f.service.Create(ctx, createRequest("PARA-NEG", -1))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeInvalidQuantity, de.Code)
	})
}

func TestProductService_UpdateKeepsSKUUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.service.Create(ctx, createRequest("A-1", 0))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, createRequest("B-1", 0))
	require.NoError(t, err)

	price := decimal.NewFromInt(3000)
	name := "Paracetamol 500mg (box)"
	updated, err := f.service.Update(ctx, first.ID, UpdateProductRequest{Name: &name, PriceIQD: &price})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.Price.IQD().Equal(price))
	assert.True(t, updated.Price.USD().Equal(decimal.RequireFromString("1.90")))
	assert.Greater(t, updated.Version, first.Version)

	taken := "B-1"
	_, err = f.service.Update(ctx, first.ID, UpdateProductRequest{SKU: &taken})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeSKUExists, de.Code)

	same := "A-1"
	_, err = f.service.Update(ctx, first.ID, UpdateProductRequest{SKU: &same})
	assert.NoError(t, err, "keeping its own sku is not a conflict")
}

func TestProductService_Movements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product, err := f.service.Create(ctx, createRequest("MOV-1", 10))
	require.NoError(t, err)

	in, err := f.service.RecordMovement(ctx, product.ID, MovementRequest{Type: "in", Quantity: 5, Notes: "found in back room"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), in.BalanceAfter)
	assert.Equal(t, string(inventory.ReasonManual), in.Reason)

	_, err = f.service.RecordMovement(ctx, product.ID, MovementRequest{Type: "out", Quantity: 16})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	adjusted, err := f.service.Adjust(ctx, product.ID, AdjustRequest{Quantity: 4, Notes: "stock count"})
	require.NoError(t, err)
	require.NotNil(t, adjusted)
	assert.Equal(t, string(inventory.DirectionOut), adjusted.Type)
	assert.Equal(t, int64(11), adjusted.Quantity)
	assert.Equal(t, int64(4), adjusted.BalanceAfter)

	unchanged, err := f.service.Adjust(ctx, product.ID, AdjustRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Nil(t, unchanged)

	low, total, err := f.service.LowStock(ctx, -1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, low, 1)
	assert.True(t, low[0].LowStock)

	history, total, err := f.service.Movements(ctx, product.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	balances := make([]int64, len(history))
	for i, m := range history {
		balances[i] = m.BalanceAfter
	}
	assert.Equal(t, []int64{10, 15, 4}, balances)
}

func TestProductService_DeleteGuardsDocumentLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	used, err := f.service.Create(ctx, createRequest("USED-1", 3))
	require.NoError(t, err)
	unused, err := f.service.Create(ctx, createRequest("FREE-1", 3))
	require.NoError(t, err)

	customer, err := partner.NewParty(partner.PartyKindCustomer, "Line Holder", decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, f.repos.Parties().Save(ctx, customer))
	doc, err := trade.NewDocument(trade.KindSale, "SAL-USED", customer.ID, testutil.Date(2024, time.May, 1), []trade.LineItem{
		{ProductID: used.ID, ProductName: used.Name, Quantity: 1, UnitPrice: used.Price},
	}, "")
	require.NoError(t, err)
	require.NoError(t, f.repos.Documents().Save(ctx, doc))

	err = f.service.Delete(ctx, used.ID)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeProductInUse, de.Code)

	require.NoError(t, f.service.Delete(ctx, unused.ID))
	_, err = f.service.GetByID(ctx, unused.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

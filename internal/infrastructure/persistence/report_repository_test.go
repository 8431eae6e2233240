package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/report"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormReportRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormReportRepository(db)

	a := saveParty(t, db, partner.PartyKindCustomer, "Alpha Trading")
	b := saveParty(t, db, partner.PartyKindCustomer, "Babylon Stores")
	c := saveParty(t, db, partner.PartyKindCustomer, "Credit Customer")
	s := saveParty(t, db, partner.PartyKindSupplier, "Basra Wholesale")
	x := saveProduct(t, db, "X-1", "Xylo", 100)
	y := saveProduct(t, db, "Y-1", "Yarn", 20)

	xPrice := valueobject.NewMoneyValueFromInts(1000, 100)
	yPrice := valueobject.NewMoneyValueFromInts(500, 50)
	at := func(day, hour int) time.Time { return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC) }

	saveDocument(t, db, trade.KindSale, "SAL-1", a.ID, at(1, 10),
		[]trade.LineItem{{ProductID: x.ID, ProductName: "Xylo", Quantity: 2, UnitPrice: xPrice}}, true)
	saveDocument(t, db, trade.KindSale, "SAL-2", b.ID, at(1, 15), []trade.LineItem{
		{ProductID: x.ID, ProductName: "Xylo", Quantity: 1, UnitPrice: xPrice},
		{ProductID: y.ID, ProductName: "Yarn", Quantity: 4, UnitPrice: yPrice},
	}, true)
	saveDocument(t, db, trade.KindSale, "SAL-3", a.ID, at(2, 9),
		[]trade.LineItem{{ProductID: y.ID, ProductName: "Yarn", Quantity: 1, UnitPrice: yPrice}}, true)
	saveDocument(t, db, trade.KindSale, "SAL-4", a.ID, at(3, 9),
		[]trade.LineItem{{ProductID: x.ID, ProductName: "Xylo", Quantity: 10, UnitPrice: xPrice}}, false)
	saveDocument(t, db, trade.KindPurchase, "PUR-1", s.ID, at(1, 8),
		[]trade.LineItem{{ProductID: x.ID, ProductName: "Xylo", Quantity: 50, UnitPrice: valueobject.NewMoneyValueFromInts(800, 60)}}, true)

	march := report.Filter{
		Kind:      report.KindSale,
		StartDate: testutil.Date(2024, time.March, 1),
		EndDate:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	}

	t.Run("summary counts only settled documents of the kind", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.Count)
		assert.True(t, summary.Total.Equals(valueobject.NewMoneyValueFromInts(5500, 550)), "total %s", summary.Total)
		assert.True(t, summary.Average.Equals(valueobject.NewMoneyValueFromInts(1833, 183)), "average %s", summary.Average)

		empty, err := repo.Summarize(ctx, report.Filter{Kind: report.KindSale,
			StartDate: testutil.Date(2023, time.January, 1), EndDate: testutil.Date(2023, time.December, 31)})
		require.NoError(t, err)
		assert.Zero(t, empty.Count)
		assert.True(t, empty.Average.Equals(valueobject.ZeroMoney()))
	})

	t.Run("daily trend buckets by UTC day", func(t *testing.T) {
		trend, err := repo.DailyTrend(ctx, march)
		require.NoError(t, err)
		require.Len(t, trend, 2)

		assert.True(t, trend[0].Date.Equal(testutil.Date(2024, time.March, 1)))
		assert.Equal(t, int64(2), trend[0].Count)
		assert.Equal(t, int64(7), trend[0].ItemsSold)
		assert.True(t, trend[0].Total.Equals(valueobject.NewMoneyValueFromInts(5000, 500)))

		assert.True(t, trend[1].Date.Equal(testutil.Date(2024, time.March, 2)))
		assert.Equal(t, int64(1), trend[1].Count)
		assert.Equal(t, int64(1), trend[1].ItemsSold)
	})

	t.Run("top products by quantity", func(t *testing.T) {
		top, err := repo.TopProducts(ctx, march)
		require.NoError(t, err)
		require.Len(t, top, 2)

		assert.Equal(t, 1, top[0].Rank)
		assert.Equal(t, y.ID, top[0].ProductID)
		assert.Equal(t, "Y-1", top[0].ProductSKU)
		assert.Equal(t, int64(5), top[0].TotalQuantity)
		assert.Equal(t, int64(2), top[0].DocumentCount)
		assert.True(t, top[0].Total.Equals(valueobject.NewMoneyValueFromInts(2500, 250)))

		assert.Equal(t, x.ID, top[1].ProductID)
		assert.Equal(t, int64(3), top[1].TotalQuantity)

		limited := march
		limited.TopN = 1
		top, err = repo.TopProducts(ctx, limited)
		require.NoError(t, err)
		assert.Len(t, top, 1)
	})

	ledger := partner.NewAccountLedger(NewGormPartyRepository(db), NewGormLedgerEntryRepository(db))
	_, err := ledger.PostSale(ctx, partner.Posting{PartyID: a.ID, Amount: valueobject.NewMoneyValueFromInts(2500, 250)})
	require.NoError(t, err)
	_, err = ledger.PostSale(ctx, partner.Posting{PartyID: b.ID, Amount: valueobject.NewMoneyValueFromInts(3000, 300)})
	require.NoError(t, err)
	_, err = ledger.PostPayment(ctx, partner.Posting{PartyID: c.ID, Amount: valueobject.NewMoneyValueFromInts(1000, 100)})
	require.NoError(t, err)
	_, err = ledger.PostPurchase(ctx, partner.Posting{PartyID: s.ID, Amount: valueobject.NewMoneyValueFromInts(40000, 3000)})
	require.NoError(t, err)

	t.Run("party analysis ranks by total", func(t *testing.T) {
		parties, err := repo.PartyAnalysis(ctx, march)
		require.NoError(t, err)
		require.Len(t, parties, 2)

		assert.Equal(t, b.ID, parties[0].PartyID)
		assert.Equal(t, "Babylon Stores", parties[0].PartyName)
		assert.Equal(t, 1, parties[0].Rank)
		assert.True(t, parties[0].Balance.Equal(decimal.NewFromInt(3000)))

		assert.Equal(t, a.ID, parties[1].PartyID)
		assert.Equal(t, int64(2), parties[1].DocumentCount)
		require.NotNil(t, parties[1].LastDocumentAt)
		assert.True(t, parties[1].LastDocumentAt.Equal(at(2, 9)))
	})

	t.Run("stock levels lowest first", func(t *testing.T) {
		levels, err := repo.StockLevels(ctx)
		require.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, y.ID, levels[0].ProductID)
		assert.Equal(t, int64(20), levels[0].CurrentStock)
		assert.Equal(t, "X-1", levels[1].SKU)
	})

	t.Run("balances", func(t *testing.T) {
		totals, err := repo.Balances(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Receivables.Equal(decimal.NewFromInt(5500)), "receivables %s", totals.Receivables)
		assert.True(t, totals.Payables.Equal(decimal.NewFromInt(40000)), "payables %s", totals.Payables)
	})
}

func TestGormReportRepository_InventoryAndReturns(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormReportRepository(db)

	customer := saveParty(t, db, partner.PartyKindCustomer, "Mansour Grocery")
	tea := saveProduct(t, db, "TEA", "Tea", 0)
	rice := saveProduct(t, db, "RICE", "Rice", 0)
	tracker := inventory.NewStockLevelTracker(NewGormProductRepository(db), NewGormStockMovementRepository(db))
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 10, 0, 0, 0, time.UTC) }

	_, err := tracker.Increase(ctx, inventory.StockChange{ProductID: tea.ID, Quantity: 30, Reason: inventory.ReasonInitial, Date: day(time.March, 1)})
	require.NoError(t, err)
	_, err = tracker.Increase(ctx, inventory.StockChange{ProductID: rice.ID, Quantity: 8, Reason: inventory.ReasonInitial, Date: day(time.March, 2)})
	require.NoError(t, err)
	_, err = tracker.Decrease(ctx, inventory.StockChange{ProductID: tea.ID, Quantity: 12, Reason: inventory.ReasonSale, Date: day(time.March, 5),
		Reference: inventory.Reference{Type: "sale", Number: "SAL-1"}})
	require.NoError(t, err)
	_, err = tracker.Increase(ctx, inventory.StockChange{ProductID: tea.ID, Quantity: 5, Reason: inventory.ReasonPurchase, Date: day(time.April, 10)})
	require.NoError(t, err)

	teaPrice := valueobject.NewMoneyValueFromInts(13100, 1000)
	saveDocument(t, db, trade.KindSale, "SAL-1", customer.ID, day(time.March, 5),
		[]trade.LineItem{{ProductID: tea.ID, ProductName: "Tea", Quantity: 12, UnitPrice: teaPrice}}, true)
	saveDocument(t, db, trade.KindSale, "SAL-2", customer.ID, day(time.March, 6),
		[]trade.LineItem{{ProductID: tea.ID, ProductName: "Tea", Quantity: 3, UnitPrice: teaPrice}}, false)

	march := report.MovementFilter{
		StartDate: testutil.Date(2024, time.March, 1),
		EndDate:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	}

	t.Run("movement log is ordered by date across products", func(t *testing.T) {
		log, err := repo.MovementLog(ctx, march)
		require.NoError(t, err)
		require.Len(t, log, 3)

		assert.Equal(t, tea.ID, log[0].ProductID)
		assert.Equal(t, "TEA", log[0].ProductSKU)
		assert.Equal(t, "in", log[0].Type)
		assert.Equal(t, int64(30), log[0].BalanceAfter)

		assert.Equal(t, "Rice", log[1].ProductName)

		assert.Equal(t, "out", log[2].Type)
		assert.Equal(t, "sale", log[2].Reason)
		assert.Equal(t, int64(18), log[2].BalanceAfter)
		assert.Equal(t, "SAL-1", log[2].ReferenceNumber)
		assert.True(t, log[2].MovementDate.Equal(day(time.March, 5)))
	})

	t.Run("movement log filters", func(t *testing.T) {
		f := march
		f.Direction = "out"
		log, err := repo.MovementLog(ctx, f)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, int64(12), log[0].Quantity)

		f = march
		f.ProductID = &rice.ID
		log, err = repo.MovementLog(ctx, f)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, rice.ID, log[0].ProductID)

		f = march
		f.Reason = "initial"
		f.Limit = 1
		log, err = repo.MovementLog(ctx, f)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, tea.ID, log[0].ProductID)
	})

	t.Run("valuations carry stock and list price", func(t *testing.T) {
		vals, err := repo.Valuations(ctx)
		require.NoError(t, err)
		require.Len(t, vals, 2)
		assert.Equal(t, "Rice", vals[0].Name)
		assert.Equal(t, int64(8), vals[0].CurrentStock)
		assert.Equal(t, tea.ID, vals[1].ProductID)
		assert.Equal(t, int64(23), vals[1].CurrentStock)
		assert.True(t, vals[1].UnitPrice.Equals(teaPrice), "price %s", vals[1].UnitPrice)
	})

	t.Run("activity counts settled sales and flows since the instant", func(t *testing.T) {
		activity, err := repo.Activity(ctx, testutil.Date(2024, time.March, 3))
		require.NoError(t, err)
		require.Len(t, activity, 2)

		assert.Equal(t, rice.ID, activity[0].ProductID)
		assert.Zero(t, activity[0].UnitsSold)
		assert.Zero(t, activity[0].UnitsIn)
		assert.Zero(t, activity[0].UnitsOut)

		assert.Equal(t, tea.ID, activity[1].ProductID)
		assert.Equal(t, int64(23), activity[1].CurrentStock)
		assert.Equal(t, int64(12), activity[1].UnitsSold)
		assert.Equal(t, int64(5), activity[1].UnitsIn)
		assert.Equal(t, int64(12), activity[1].UnitsOut)
	})

	t.Run("return totals by kind and period", func(t *testing.T) {
		rows := []models.ReturnModel{
			{Number: "RET-1", DocumentKind: trade.KindSale, ReversalIQD: decimal.NewFromInt(2000),
				ReversalUSD: decimal.RequireFromString("1.50"), ReturnDate: day(time.March, 10)},
			{Number: "RET-2", DocumentKind: trade.KindPurchase, ReversalIQD: decimal.NewFromInt(1000),
				ReversalUSD: decimal.RequireFromString("0.80"), ReturnDate: day(time.March, 11)},
			{Number: "RET-3", DocumentKind: trade.KindSale, ReversalIQD: decimal.NewFromInt(9000),
				ReversalUSD: decimal.RequireFromString("7.00"), ReturnDate: day(time.April, 1)},
		}
		for i := range rows {
			rows[i].ID = uuid.New()
			rows[i].DocumentID = uuid.New()
			rows[i].PartyID = customer.ID
			rows[i].CreatedAt = rows[i].ReturnDate
			require.NoError(t, db.Create(&rows[i]).Error)
		}

		total, err := repo.ReturnTotals(ctx, report.Filter{Kind: report.KindSale, StartDate: march.StartDate, EndDate: march.EndDate})
		require.NoError(t, err)
		assert.True(t, total.Equals(valueobject.NewMoneyValueFromInts(2000, 150)), "sales returns %s", total)

		none, err := repo.ReturnTotals(ctx, report.Filter{Kind: report.KindPurchase,
			StartDate: testutil.Date(2023, time.January, 1), EndDate: testutil.Date(2023, time.December, 31)})
		require.NoError(t, err)
		assert.True(t, none.Equals(valueobject.ZeroMoney()))
	})
}

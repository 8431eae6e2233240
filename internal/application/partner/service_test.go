package partner

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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)

type services struct {
	repos    *persistence.GormRepositories
	recorder *testutil.EventRecorder
	parties  *PartyService
	payments *PaymentService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	recorder := testutil.NewEventRecorder()
	events := event.NewDispatcher(nil, recorder)
	return &services{
		repos:    repos,
		recorder: recorder,
		parties:  NewPartyService(repos.Parties(), repos.LedgerEntries(), repos.Documents(), scope, events, nil).WithHistoryBatchSize(2),
		payments: NewPaymentService(repos.Payments(), scope, events, nil).WithClock(testutil.FixedClock(clock)),
	}
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (s *services) postSale(t *testing.T, partyID uuid.UUID, amount int64, at time.Time) {
	t.Helper()
	ledger := partner.NewAccountLedger(s.repos.Parties(), s.repos.LedgerEntries())
	_, err := ledger.PostSale(context.Background(), partner.Posting{
		PartyID:     partyID,
		Amount:      valueobject.NewMoneyValue(money(amount), decimal.NewFromInt(amount).Div(money(1310)).Round(2)),
		Reference:   partner.Reference{Type: partner.ReferenceTypeSale, ID: uuid.New(), Number: "SAL-TEST"},
		Date:        at,
		Description: "Sales Invoice SAL-TEST",
	})
	require.NoError(t, err)
}

func TestPartyService_CreateUpdateList(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	limit := money(250000)
	created, err := s.parties.Create(ctx, partner.PartyKindCustomer, CreatePartyRequest{
		Name:        "  Al-Rasheed Pharmacy ",
		Phone:       "+964 770 000 0000",
		CreditLimit: &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, "Al-Rasheed Pharmacy", created.Name)
	assert.True(t, created.Balance.IsZero())
	assert.Equal(t, 1, s.recorder.Count(partner.EventTypePartyCreated))

	name := "Al-Rasheed Pharmacy Branch 2"
	status := string(partner.PartyStatusInactive)
	updated, err := s.parties.Update(ctx, partner.PartyKindCustomer, created.ID, UpdatePartyRequest{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, status, updated.Status)

	_, err = s.parties.GetByID(ctx, partner.PartyKindSupplier, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, total, err := s.parties.List(ctx, partner.PartyKindCustomer, PartyListFilter{Search: "branch"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

// Sale 100000, payment 40000, return 20000: the customer owes 40000.
func TestLedgerScenario(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	customer, err := s.parties.Create(ctx, partner.PartyKindCustomer, CreatePartyRequest{Name: "Scenario Customer"})
	require.NoError(t, err)

	s.postSale(t, customer.ID, 100000, testutil.Date(2024, time.July, 1))

	paid, err := s.payments.Create(ctx, partner.PartyKindCustomer, CreatePaymentRequest{
		PartyID:   customer.ID,
		AmountIQD: money(40000),
		AmountUSD: decimal.RequireFromString("30.53"),
		Method:    "cash",
		Date:      ptr(testutil.Date(2024, time.July, 5)),
	})
	require.NoError(t, err)
	require.NotNil(t, paid.Balance)
	assert.True(t, paid.Balance.Equal(money(60000)))

	ledger := partner.NewAccountLedger(s.repos.Parties(), s.repos.LedgerEntries())
	_, err = ledger.PostReturn(ctx, partner.Posting{
		PartyID:   customer.ID,
		Amount:    valueobject.NewMoneyValue(money(20000), decimal.RequireFromString("15.27")),
		Reference: partner.Reference{Type: partner.ReferenceTypeReturn, ID: uuid.New(), Number: "RET-TEST"},
		Date:      testutil.Date(2024, time.July, 8),
	})
	require.NoError(t, err)

	stats, err := s.parties.Statistics(ctx, partner.PartyKindCustomer, customer.ID)
	require.NoError(t, err)
	assert.True(t, stats.Balance.Equal(money(40000)), "balance %s", stats.Balance)

	history, err := s.parties.Transactions(ctx, partner.PartyKindCustomer, customer.ID, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	types := []string{history[0].Type, history[1].Type, history[2].Type}
	assert.Equal(t, []string{string(partner.EntryTypeSale), string(partner.EntryTypePayment), string(partner.EntryTypeReturn)}, types)
	for i, e := range history {
		assert.Equal(t, int64(i+1), e.Sequence)
		assert.True(t, e.BalanceAfter.Equal(e.BalanceBefore.Add(e.AmountDelta)))
	}
	assert.True(t, history[2].BalanceAfter.Equal(stats.Balance))

	t.Run("date window is inclusive of the end day", func(t *testing.T) {
		from, to := testutil.Date(2024, time.July, 5), testutil.Date(2024, time.July, 8)
		window, err := s.parties.Transactions(ctx, partner.PartyKindCustomer, customer.ID, TransactionQuery{StartDate: &from, EndDate: &to})
		require.NoError(t, err)
		require.Len(t, window, 2)
		assert.Equal(t, string(partner.EntryTypePayment), window[0].Type)
	})

	t.Run("reversed window is rejected", func(t *testing.T) {
		from, to := testutil.Date(2024, time.July, 8), testutil.Date(2024, time.July, 1)
		_, err := s.parties.Transactions(ctx, partner.PartyKindCustomer, customer.ID, TransactionQuery{StartDate: &from, EndDate: &to})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPaymentService_CorrectionsKeepLedgerAppendOnly(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	supplier, err := s.parties.Create(ctx, partner.PartyKindSupplier, CreatePartyRequest{Name: "Najaf Wholesale"})
	require.NoError(t, err)

	ledger := partner.NewAccountLedger(s.repos.Parties(), s.repos.LedgerEntries())
	_, err = ledger.PostPurchase(ctx, partner.Posting{PartyID: supplier.ID, Amount: valueobject.NewMoneyValueFromInts(90000, 6870),
		Date: testutil.Date(2024, time.July, 1)})
	require.NoError(t, err)

	chequeDate := testutil.Date(2024, time.July, 20)
	payment, err := s.payments.Create(ctx, partner.PartyKindSupplier, CreatePaymentRequest{
		PartyID:      supplier.ID,
		AmountIQD:    money(30000),
		AmountUSD:    decimal.RequireFromString("22.90"),
		Method:       "cheque",
		BankName:     "Rafidain Bank",
		ChequeNumber: "000123",
		ChequeDate:   &chequeDate,
	})
	require.NoError(t, err)
	assert.True(t, payment.Balance.Equal(money(60000)))
	assert.Equal(t, 1, s.recorder.Count(partner.EventTypePaymentRecorded))

	_, err = s.payments.GetByID(ctx, partner.PartyKindCustomer, payment.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "a supplier payment is not visible as a customer payment")

	updated, err := s.payments.Update(ctx, partner.PartyKindSupplier, payment.ID, UpdatePaymentRequest{
		AmountIQD: money(50000),
		AmountUSD: decimal.RequireFromString("38.17"),
		Method:    "bank_transfer",
		BankName:  "Rafidain Bank",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Balance)
	assert.True(t, updated.Balance.Equal(money(40000)), "balance %s", updated.Balance)

	require.NoError(t, s.payments.Delete(ctx, partner.PartyKindSupplier, payment.ID))
	_, err = s.payments.GetByID(ctx, partner.PartyKindSupplier, payment.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	history, err := s.parties.Transactions(ctx, partner.PartyKindSupplier, supplier.ID, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, history, 4, "purchase, payment, correction, reversal")
	assert.True(t, history[2].AmountDelta.Equal(money(-20000)))
	assert.True(t, history[3].AmountDelta.Equal(money(50000)))
	assert.True(t, history[3].BalanceAfter.Equal(money(90000)))

	t.Run("invalid method details", func(t *testing.T) {
		_, err := s.payments.Create(ctx, partner.PartyKindSupplier, CreatePaymentRequest{
			PartyID:   supplier.ID,
			AmountIQD: money(1000),
			AmountUSD: decimal.RequireFromString("0.76"),
			Method:    "bank_transfer",
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeMissingField, de.Code)
		assert.Equal(t, "bank_name", de.Details["field"])
	})
}

func TestPaymentService_RejectsPaymentBeforeLastEntry(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	customer, err := s.parties.Create(ctx, partner.PartyKindCustomer, CreatePartyRequest{Name: "Karbala Textiles"})
	require.NoError(t, err)
	s.postSale(t, customer.ID, 100000, testutil.Date(2024, time.February, 1))

	_, err = s.payments.Create(ctx, partner.PartyKindCustomer, CreatePaymentRequest{
		PartyID:   customer.ID,
		AmountIQD: money(40000),
		AmountUSD: decimal.RequireFromString("30.53"),
		Method:    "cash",
		Date:      ptr(testutil.Date(2024, time.January, 5)),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeBackdatedEntry, de.Code)
	assert.Contains(t, de.Message, "2024-02-01")
	assert.Zero(t, s.recorder.Count(partner.EventTypePaymentRecorded))

	payments, total, err := s.payments.List(ctx, partner.PartyKindCustomer, PaymentListFilter{PartyID: &customer.ID})
	require.NoError(t, err)
	assert.Zero(t, total, "the payment row is rolled back with the ledger entry")
	assert.Empty(t, payments)

	stats, err := s.parties.Statistics(ctx, partner.PartyKindCustomer, customer.ID)
	require.NoError(t, err)
	assert.True(t, stats.Balance.Equal(money(100000)))

	from, to := testutil.Date(2024, time.January, 1), testutil.Date(2024, time.January, 31)
	january, err := s.parties.Transactions(ctx, partner.PartyKindCustomer, customer.ID, TransactionQuery{StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	assert.Empty(t, january)
}

func TestPartyService_DeleteGuardsDocuments(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	busy, err := s.parties.Create(ctx, partner.PartyKindCustomer, CreatePartyRequest{Name: "Busy"})
	require.NoError(t, err)
	idle, err := s.parties.Create(ctx, partner.PartyKindCustomer, CreatePartyRequest{Name: "Idle"})
	require.NoError(t, err)

	product, err := inventory.NewProduct("SKU-DEL", "Guarded", valueobject.NewMoneyValueFromInts(1000, 76))
	require.NoError(t, err)
	require.NoError(t, s.repos.Products().Save(ctx, product))
	doc, err := trade.NewDocument(trade.KindSale, "SAL-GUARD", busy.ID, clock, []trade.LineItem{
		{ProductID: product.ID, ProductName: product.Name, Quantity: 1, UnitPrice: product.Price},
	}, "")
	require.NoError(t, err)
	require.NoError(t, s.repos.Documents().Save(ctx, doc))

	err = s.parties.Delete(ctx, partner.PartyKindCustomer, busy.ID)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodePartyInUse, de.Code)
	assert.EqualValues(t, 1, de.Details["document_count"])

	require.NoError(t, s.parties.Delete(ctx, partner.PartyKindCustomer, idle.ID))
	_, err = s.parties.GetByID(ctx, partner.PartyKindCustomer, idle.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }

package partner

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPartyRepo struct {
	mu      sync.Mutex
	parties map[uuid.UUID]Party
}

func newMemPartyRepo() *memPartyRepo {
	return &memPartyRepo{parties: make(map[uuid.UUID]Party)}
}

func (r *memPartyRepo) FindByID(_ context.Context, id uuid.UUID) (*Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memPartyRepo) FindByIDAndKind(ctx context.Context, id uuid.UUID, kind PartyKind) (*Party, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Kind != kind {
		return nil, shared.NewNotFoundError(string(kind), id)
	}
	return p, nil
}

func (r *memPartyRepo) FindAll(_ context.Context, kind PartyKind, _ shared.Filter) ([]Party, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Party
	for _, p := range r.parties {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPartyRepo) Save(_ context.Context, p *Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties[p.ID] = *p
	return nil
}

func (r *memPartyRepo) SaveWithLock(_ context.Context, p *Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.parties[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != p.Version-1 {
		return shared.NewConcurrencyError("party", p.ID)
	}
	r.parties[p.ID] = *p
	return nil
}

func (r *memPartyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.parties, id)
	return nil
}

type memEntryRepo struct {
	mu      sync.Mutex
	entries []LedgerEntry
	queries int
}

func (r *memEntryRepo) Append(_ context.Context, e *LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memEntryRepo) FindLatest(_ context.Context, partyID uuid.UUID) (*LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *LedgerEntry
	for i := range r.entries {
		e := r.entries[i]
		if e.PartyID == partyID && (latest == nil || e.Sequence > latest.Sequence) {
			latest = &e
		}
	}
	return latest, nil
}

func (r *memEntryRepo) FindPage(_ context.Context, partyID uuid.UUID, q HistoryQuery, afterSeq int64, size int) ([]LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	var out []LedgerEntry
	for _, e := range r.entries {
		if e.PartyID != partyID || e.Sequence <= afterSeq || !q.Range.Contains(e.EntryDate) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].Sequence < out[j].Sequence
	})
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

func newLedgerFixture(t *testing.T, kind PartyKind) (*AccountLedger, *memPartyRepo, *memEntryRepo, *Party) {
	t.Helper()
	parties := newMemPartyRepo()
	entries := &memEntryRepo{}
	party, err := NewParty(kind, "Al-Rafidain Trading", decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, parties.Save(context.Background(), party))
	return NewAccountLedger(parties, entries), parties, entries, party
}

func iqd(n int64) valueobject.MoneyValue {
	return valueobject.NewMoneyValue(decimal.NewFromInt(n), decimal.NewFromInt(n).DivRound(decimal.NewFromInt(1300), 2))
}

func TestAccountLedger_CustomerScenario(t *testing.T) {
	ctx := context.Background()
	ledger, _, _, customer := newLedgerFixture(t, PartyKindCustomer)
	saleID := uuid.New()

	_, err := ledger.PostSale(ctx, Posting{PartyID: customer.ID, Amount: iqd(100000),
		Reference: Reference{Type: ReferenceTypeSale, ID: saleID, Number: "SAL-1"}})
	require.NoError(t, err)
	balance, err := ledger.CurrentBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "100000", balance.String())

	_, err = ledger.PostPayment(ctx, Posting{PartyID: customer.ID, Amount: iqd(40000)})
	require.NoError(t, err)
	balance, _ = ledger.CurrentBalance(ctx, customer.ID)
	assert.Equal(t, "60000", balance.String())

	_, err = ledger.PostReturn(ctx, Posting{PartyID: customer.ID, Amount: iqd(20000),
		Reference: Reference{Type: ReferenceTypeReturn, ID: uuid.New()}})
	require.NoError(t, err)
	balance, _ = ledger.CurrentBalance(ctx, customer.ID)
	assert.Equal(t, "40000", balance.String())

	history, err := CollectHistory(ledger.History(ctx, customer.ID, HistoryQuery{}))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []EntryType{EntryTypeSale, EntryTypePayment, EntryTypeReturn},
		[]EntryType{history[0].Type, history[1].Type, history[2].Type})
	assert.Equal(t, "-40000", history[1].AmountDelta.String())
	assert.Equal(t, "60000", history[1].BalanceBefore().String())
}

func TestAccountLedger_EmptyPartyBalanceIsZero(t *testing.T) {
	ledger, _, _, customer := newLedgerFixture(t, PartyKindCustomer)
	balance, err := ledger.CurrentBalance(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestAccountLedger_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	ledger, _, _, customer := newLedgerFixture(t, PartyKindCustomer)

	for _, amount := range []valueobject.MoneyValue{valueobject.ZeroMoney(), iqd(-5)} {
		_, err := ledger.PostPayment(ctx, Posting{PartyID: customer.ID, Amount: amount})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeInvalidAmount, de.Code)
		assert.Equal(t, shared.KindValidation, de.Kind)
	}
}

func TestAccountLedger_SaleRequiresCustomer(t *testing.T) {
	ledger, _, _, supplier := newLedgerFixture(t, PartyKindSupplier)
	_, err := ledger.PostSale(context.Background(), Posting{PartyID: supplier.ID, Amount: iqd(1000)})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = ledger.PostPurchase(context.Background(), Posting{PartyID: supplier.ID, Amount: iqd(1000)})
	assert.NoError(t, err)
}

func TestAccountLedger_StaleVersionIsConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	_, parties, _, customer := newLedgerFixture(t, PartyKindCustomer)

	first, _ := parties.FindByID(ctx, customer.ID)
	second, _ := parties.FindByID(ctx, customer.ID)

	_, err := first.Post(EntryTypeSale, iqd(1000), Reference{}, time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, parties.SaveWithLock(ctx, first))

	_, err = second.Post(EntryTypeSale, iqd(2000), Reference{}, time.Now(), "")
	require.NoError(t, err)
	err = parties.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.Retryable())
}

// Balance must equal the fold of every delta regardless of how postings mix.
func TestAccountLedger_BalanceIsFoldOfDeltas(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(7)

	for round := 0; round < 25; round++ {
		ledger, _, entries, customer := newLedgerFixture(t, PartyKindCustomer)
		expected := decimal.Zero
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		n := faker.IntRange(1, 40)
		for i := 0; i < n; i++ {
			amount := iqd(int64(faker.IntRange(1, 500) * 250))
			at = at.Add(time.Duration(faker.IntRange(0, 48)) * time.Hour)
			p := Posting{PartyID: customer.ID, Amount: amount, Date: at}
			var err error
			switch faker.IntRange(0, 2) {
			case 0:
				_, err = ledger.PostSale(ctx, p)
				expected = expected.Add(amount.IQD())
			case 1:
				_, err = ledger.PostPayment(ctx, p)
				expected = expected.Sub(amount.IQD())
			default:
				_, err = ledger.PostReturn(ctx, p)
				expected = expected.Sub(amount.IQD())
			}
			require.NoError(t, err)
		}

		balance, err := ledger.CurrentBalance(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(expected), "round %d: balance %s, fold %s", round, balance, expected)

		history, err := CollectHistory(ledger.WithBatchSize(7).History(ctx, customer.ID, HistoryQuery{}))
		require.NoError(t, err)
		require.Len(t, history, n)
		folded := decimal.Zero
		for _, e := range history {
			folded = folded.Add(e.AmountDelta)
		}
		assert.True(t, folded.Equal(expected))

		running := decimal.Zero
		for i, e := range history {
			running = running.Add(e.AmountDelta)
			assert.True(t, e.BalanceAfter.Equal(running), "entry %d", i)
			if i > 0 {
				assert.False(t, e.EntryDate.Before(history[i-1].EntryDate))
				assert.Greater(t, e.Sequence, history[i-1].Sequence)
			}
		}
		assert.Len(t, entries.entries, n)
	}
}

func TestAccountLedger_HistoryIsLazyAndRestartable(t *testing.T) {
	ctx := context.Background()
	ledger, _, entries, customer := newLedgerFixture(t, PartyKindCustomer)
	ledger.WithBatchSize(2)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		desc := "sale"
		if i%2 == 1 {
			desc = "cash payment"
		}
		_, err := ledger.PostSale(ctx, Posting{PartyID: customer.ID, Amount: iqd(1000),
			Date: base.AddDate(0, 0, i), Description: desc})
		require.NoError(t, err)
	}

	seq := ledger.History(ctx, customer.ID, HistoryQuery{})
	assert.Equal(t, 0, entries.queries)

	first, err := CollectHistory(seq)
	require.NoError(t, err)
	second, err := CollectHistory(seq)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)

	limited, err := CollectHistory(ledger.History(ctx, customer.ID, HistoryQuery{Limit: 3}))
	require.NoError(t, err)
	assert.Len(t, limited, 3)

	ranged, err := CollectHistory(ledger.History(ctx, customer.ID, HistoryQuery{
		Range: shared.DateRange{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 3)},
	}))
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	searched, err := CollectHistory(ledger.History(ctx, customer.ID, HistoryQuery{Search: "PAYMENT"}))
	require.NoError(t, err)
	assert.Len(t, searched, 2)

	for e, err := range ledger.History(ctx, customer.ID, HistoryQuery{}) {
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.Sequence)
		break
	}
}

func TestParty_PostRejectsBackdatedEntries(t *testing.T) {
	p, err := NewCustomer("Basra Foods", decimal.Zero)
	require.NoError(t, err)

	later := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err = p.Post(EntryTypeSale, iqd(1000), Reference{}, later, "")
	require.NoError(t, err)

	_, err = p.Post(EntryTypePayment, iqd(500).Negate(), Reference{}, later.AddDate(0, 0, -3), "")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeBackdatedEntry, de.Code)
	assert.Equal(t, shared.KindValidation, de.Kind)
	assert.Contains(t, de.Message, "2024-05-10")
	assert.Equal(t, later.Format(time.RFC3339), de.Details["last_entry_date"])
	assert.Equal(t, int64(1), p.EntrySeq)
	assert.Equal(t, "1000", p.Balance.String())
	assert.Equal(t, later, p.LastEntryAt)

	e, err := p.Post(EntryTypePayment, iqd(500).Negate(), Reference{}, later, "")
	require.NoError(t, err, "same-day entries are allowed")
	assert.Equal(t, int64(2), e.Sequence)
	assert.Equal(t, "500", p.Balance.String())
}

func TestAccountLedger_BackdatedPostingWritesNothing(t *testing.T) {
	ctx := context.Background()
	ledger, _, entries, customer := newLedgerFixture(t, PartyKindCustomer)

	_, err := ledger.PostSale(ctx, Posting{PartyID: customer.ID, Amount: iqd(100000), Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	_, err = ledger.PostPayment(ctx, Posting{PartyID: customer.ID, Amount: iqd(40000), Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, &shared.DomainError{Code: shared.CodeBackdatedEntry})
	assert.Len(t, entries.entries, 1)

	balance, err := ledger.CurrentBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "100000", balance.String())
}

func TestNewParty_Validation(t *testing.T) {
	_, err := NewParty("vendor", "x", decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewCustomer("   ", decimal.Zero)
	assert.Error(t, err)

	_, err = NewSupplier("Erbil Steel", decimal.NewFromInt(-1))
	assert.Error(t, err)

	s, err := NewSupplier(" Erbil Steel ", decimal.NewFromInt(5000000))
	require.NoError(t, err)
	assert.Equal(t, "Erbil Steel", s.Name)
	assert.True(t, s.IsActive())
	require.Len(t, s.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePartyCreated, s.GetDomainEvents()[0].EventType())
}

package partner

import (
	"errors"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentMethod(t *testing.T) {
	chequeDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		details   MethodDetails
		want      PaymentMethod
		wantField string
	}{
		{"cash ignores bank fields", MethodDetails{Kind: MethodCash, BankName: "RBI"}, Cash{}, ""},
		{"bank transfer", MethodDetails{Kind: MethodBankTransfer, BankName: " Rafidain "}, BankTransfer{BankName: "Rafidain"}, ""},
		{"bank transfer without bank", MethodDetails{Kind: MethodBankTransfer}, nil, "bank_name"},
		{"cheque", MethodDetails{Kind: MethodCheque, BankName: "TBI", ChequeNumber: "000123", ChequeDate: &chequeDate},
			Cheque{BankName: "TBI", ChequeNumber: "000123", ChequeDate: chequeDate}, ""},
		{"cheque without bank", MethodDetails{Kind: MethodCheque, ChequeNumber: "1", ChequeDate: &chequeDate}, nil, "bank_name"},
		{"cheque without number", MethodDetails{Kind: MethodCheque, BankName: "TBI", ChequeDate: &chequeDate}, nil, "cheque_number"},
		{"cheque without date", MethodDetails{Kind: MethodCheque, BankName: "TBI", ChequeNumber: "1"}, nil, "cheque_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPaymentMethod(tt.details)
			if tt.wantField != "" {
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, shared.CodeMissingField, de.Code)
				assert.Equal(t, tt.wantField, de.Details["field"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.details.Kind, got.Kind())
		})
	}

	_, err := NewPaymentMethod(MethodDetails{Kind: "crypto"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDescribeMethod(t *testing.T) {
	date := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	d := DescribeMethod(Cheque{BankName: "TBI", ChequeNumber: "77", ChequeDate: date})
	assert.Equal(t, MethodCheque, d.Kind)
	require.NotNil(t, d.ChequeDate)
	assert.Equal(t, date, *d.ChequeDate)

	rebuilt, err := NewPaymentMethod(d)
	require.NoError(t, err)
	assert.Equal(t, Cheque{BankName: "TBI", ChequeNumber: "77", ChequeDate: date}, rebuilt)

	assert.Equal(t, MethodDetails{Kind: MethodCash}, DescribeMethod(Cash{}))
}

func TestPayment_NewAndUpdate(t *testing.T) {
	customer, err := NewCustomer("Najaf Market", decimal.Zero)
	require.NoError(t, err)

	_, err = NewPayment(customer, valueobject.NewMoneyValueFromInts(40000, 0), Cash{}, time.Now(), "")
	assert.ErrorIs(t, err, &shared.DomainError{Code: shared.CodeInvalidAmount})

	p, err := NewPayment(customer, valueobject.NewMoneyValueFromInts(40000, 3053), Cash{}, time.Time{}, "first")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, p.PartyID)
	assert.Equal(t, PartyKindCustomer, p.PartyKind)
	assert.False(t, p.Date.IsZero())

	delta, err := p.Update(valueobject.NewMoneyValueFromInts(50000, 3817), BankTransfer{BankName: "RBI"}, time.Time{}, "corrected")
	require.NoError(t, err)
	assert.Equal(t, "-10000", delta.IQD().String())
	assert.Equal(t, "-7.64", delta.USD().String())
	assert.Equal(t, MethodBankTransfer, p.Method.Kind())
	assert.Equal(t, 2, p.Version)

	_, err = p.Update(valueobject.ZeroMoney(), Cash{}, time.Time{}, "")
	assert.Error(t, err)
}

func TestInterpretBalance(t *testing.T) {
	tests := []struct {
		kind     PartyKind
		balance  int64
		standing Standing
		tone     Tone
	}{
		{PartyKindCustomer, 60000, StandingCustomerOwes, ToneNeutral},
		{PartyKindCustomer, -2500, StandingBusinessOwesCustomer, ToneUnfavorable},
		{PartyKindSupplier, 60000, StandingBusinessOwesSupplier, ToneNeutral},
		{PartyKindSupplier, -2500, StandingSupplierOwes, ToneFavorable},
		{PartyKindSupplier, 0, StandingSettled, ToneNeutral},
	}
	for _, tt := range tests {
		got := InterpretBalance(tt.kind, decimal.NewFromInt(tt.balance))
		assert.Equal(t, tt.standing, got.Standing, "%s %d", tt.kind, tt.balance)
		assert.Equal(t, tt.tone, got.Tone, "%s %d", tt.kind, tt.balance)
		assert.True(t, got.Amount.GreaterThanOrEqual(decimal.Zero))
	}
}

func TestCreditLimitPolicy(t *testing.T) {
	customer, err := NewCustomer("Kirkuk Supplies", decimal.NewFromInt(100000))
	require.NoError(t, err)
	customer.Balance = decimal.NewFromInt(80000)
	customer.ClearDomainEvents()

	warning, err := CreditLimitWarn.Check(customer, decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.Nil(t, warning)

	warning, err = CreditLimitWarn.Check(customer, decimal.NewFromInt(30000))
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, "110000", warning.Projected.String())
	require.Len(t, customer.GetDomainEvents(), 1)

	_, err = CreditLimitBlock.Check(customer, decimal.NewFromInt(30000))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.CodeCreditLimit, de.Code)
	assert.Equal(t, shared.KindState, de.Kind)

	unlimited, _ := NewCustomer("Walk-in", decimal.Zero)
	warning, err = CreditLimitBlock.Check(unlimited, decimal.NewFromInt(1_000_000_000))
	assert.NoError(t, err)
	assert.Nil(t, warning)

	p, err := ParseCreditLimitPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CreditLimitWarn, p)
	p, err = ParseCreditLimitPolicy("BLOCK")
	require.NoError(t, err)
	assert.Equal(t, CreditLimitBlock, p)
	_, err = ParseCreditLimitPolicy("ignore")
	assert.Error(t, err)
}

package partner

import "github.com/shopspring/decimal"

// Standing says who owes whom
type Standing string

const (
	StandingSettled              Standing = "settled"
	StandingCustomerOwes         Standing = "customer_owes"
	StandingBusinessOwesCustomer Standing = "business_owes_customer"
	StandingBusinessOwesSupplier Standing = "business_owes_supplier"
	StandingSupplierOwes         Standing = "supplier_owes"
)

// Tone is how a client should color a balance
type Tone string

const (
	ToneNeutral     Tone = "neutral"
	ToneFavorable   Tone = "favorable"
	ToneUnfavorable Tone = "unfavorable"
)

// BalanceInterpretation is the meaning of a stored balance for one party kind
type BalanceInterpretation struct {
	Balance  decimal.Decimal `json:"balance"`
	Amount   decimal.Decimal `json:"amount"`
	Standing Standing        `json:"standing"`
	Tone     Tone            `json:"tone"`
}

// InterpretBalance maps a stored balance to its meaning. Both party kinds
// store "amount currently owed to the ledger owner", so a negative balance
// is bad for a customer account and good for a supplier account.
func InterpretBalance(kind PartyKind, balance decimal.Decimal) BalanceInterpretation {
	out := BalanceInterpretation{
		Balance:  balance,
		Amount:   balance.Abs(),
		Standing: StandingSettled,
		Tone:     ToneNeutral,
	}
	if balance.IsZero() {
		return out
	}

	negative := balance.IsNegative()
	switch kind {
	case PartyKindCustomer:
		if negative {
			out.Standing = StandingBusinessOwesCustomer
			out.Tone = ToneUnfavorable
		} else {
			out.Standing = StandingCustomerOwes
		}
	case PartyKindSupplier:
		if negative {
			out.Standing = StandingSupplierOwes
			out.Tone = ToneFavorable
		} else {
			out.Standing = StandingBusinessOwesSupplier
		}
	}
	return out
}

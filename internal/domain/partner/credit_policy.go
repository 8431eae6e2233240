package partner

import (
	"fmt"
	"strings"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreditLimitPolicy decides what happens when a sale would push a customer
// past the credit limit
type CreditLimitPolicy string

const (
	// CreditLimitWarn lets the sale through and reports a warning
	CreditLimitWarn CreditLimitPolicy = "warn"
	// CreditLimitBlock rejects the sale
	CreditLimitBlock CreditLimitPolicy = "block"
)

// ParseCreditLimitPolicy parses a policy name. Empty means warn.
func ParseCreditLimitPolicy(s string) (CreditLimitPolicy, error) {
	switch CreditLimitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CreditLimitWarn:
		return CreditLimitWarn, nil
	case CreditLimitBlock:
		return CreditLimitBlock, nil
	}
	return "", fmt.Errorf("unknown credit limit policy %q (want warn or block)", s)
}

// CreditWarning describes a limit breach allowed under the warn policy
type CreditWarning struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Projected   decimal.Decimal `json:"projected_balance"`
}

// Check evaluates a sale of amount against the party's limit. It returns a
// warning under warn, an error under block, and nothing when within limit.
func (p CreditLimitPolicy) Check(party *Party, amount decimal.Decimal) (*CreditWarning, error) {
	if party == nil || !party.HasCreditLimit() {
		return nil, nil
	}
	projected := party.Balance.Add(amount)
	if projected.LessThanOrEqual(party.CreditLimit) {
		return nil, nil
	}

	msg := fmt.Sprintf("balance of %s would reach %s IQD, above its credit limit of %s IQD",
		party.Name, projected.String(), party.CreditLimit.String())
	if p == CreditLimitBlock {
		return nil, shared.NewStateError(shared.CodeCreditLimit, "%s", msg).
			WithDetail("party_id", party.ID.String()).
			WithDetail("credit_limit", party.CreditLimit.String()).
			WithDetail("projected_balance", projected.String())
	}
	party.AddDomainEvent(NewCreditLimitExceededEvent(party, projected))
	return &CreditWarning{
		Code:        shared.CodeCreditLimit,
		Message:     msg,
		CreditLimit: party.CreditLimit,
		Projected:   projected,
	}, nil
}

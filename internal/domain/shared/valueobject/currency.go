package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	IQD Currency = "IQD" // Iraqi Dinar, no minor unit in practice
	USD Currency = "USD" // US Dollar
)

// ParseCurrency parses a currency code, case-insensitive
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case IQD:
		return IQD, nil
	case USD:
		return USD, nil
	default:
		return "", fmt.Errorf("unsupported currency %q", code)
	}
}

// Places returns the number of decimal places amounts in this currency keep
func (c Currency) Places() int32 {
	if c == IQD {
		return 0
	}
	return 2
}

// Round rounds an amount to the currency's precision, half away from zero.
// decimal.Round rounds 0.5 away from zero for both signs.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Places())
}

func (c Currency) String() string {
	return string(c)
}

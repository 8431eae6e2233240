package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyValue is an amount captured in both IQD and USD at transaction time.
// The two components are independent: arithmetic never derives one from the
// other, so historical documents keep the values they were recorded with.
// It is immutable - all operations return new values.
type MoneyValue struct {
	iqd decimal.Decimal
	usd decimal.Decimal
}

// NewMoneyValue creates a MoneyValue from both currency components
func NewMoneyValue(iqd, usd decimal.Decimal) MoneyValue {
	return MoneyValue{iqd: iqd, usd: usd}
}

// NewMoneyValueFromInts creates a MoneyValue from whole dinars and US cents
func NewMoneyValueFromInts(iqd int64, usdCents int64) MoneyValue {
	return MoneyValue{
		iqd: decimal.NewFromInt(iqd),
		usd: decimal.New(usdCents, -2),
	}
}

// ZeroMoney returns a zero amount in both currencies
func ZeroMoney() MoneyValue {
	return MoneyValue{iqd: decimal.Zero, usd: decimal.Zero}
}

// IQD returns the dinar component
func (m MoneyValue) IQD() decimal.Decimal {
	return m.iqd
}

// USD returns the dollar component
func (m MoneyValue) USD() decimal.Decimal {
	return m.usd
}

// In returns the component for the given currency
func (m MoneyValue) In(c Currency) decimal.Decimal {
	if c == IQD {
		return m.iqd
	}
	return m.usd
}

// Add returns the componentwise sum
func (m MoneyValue) Add(other MoneyValue) MoneyValue {
	return MoneyValue{iqd: m.iqd.Add(other.iqd), usd: m.usd.Add(other.usd)}
}

// Subtract returns the componentwise difference
func (m MoneyValue) Subtract(other MoneyValue) MoneyValue {
	return MoneyValue{iqd: m.iqd.Sub(other.iqd), usd: m.usd.Sub(other.usd)}
}

// Scale multiplies both components by a quantity
func (m MoneyValue) Scale(quantity int64) MoneyValue {
	q := decimal.NewFromInt(quantity)
	return MoneyValue{iqd: m.iqd.Mul(q), usd: m.usd.Mul(q)}
}

// Negate flips the sign of both components
func (m MoneyValue) Negate() MoneyValue {
	return MoneyValue{iqd: m.iqd.Neg(), usd: m.usd.Neg()}
}

// Round rounds each component to its currency precision (IQD whole, USD cents)
func (m MoneyValue) Round() MoneyValue {
	return MoneyValue{iqd: IQD.Round(m.iqd), usd: USD.Round(m.usd)}
}

// IsZero returns true if both components are zero
func (m MoneyValue) IsZero() bool {
	return m.iqd.IsZero() && m.usd.IsZero()
}

// IsPositive returns true if both components are strictly positive
func (m MoneyValue) IsPositive() bool {
	return m.iqd.IsPositive() && m.usd.IsPositive()
}

// IsNegative returns true if either component is negative
func (m MoneyValue) IsNegative() bool {
	return m.iqd.IsNegative() || m.usd.IsNegative()
}

// Equals compares both components
func (m MoneyValue) Equals(other MoneyValue) bool {
	return m.iqd.Equal(other.iqd) && m.usd.Equal(other.usd)
}

// String returns a string representation of the MoneyValue
func (m MoneyValue) String() string {
	return fmt.Sprintf("%s IQD / %s USD", m.iqd.StringFixed(IQD.Places()), m.usd.StringFixed(USD.Places()))
}

type moneyJSON struct {
	IQD decimal.Decimal `json:"iqd"`
	USD decimal.Decimal `json:"usd"`
}

// MarshalJSON implements json.Marshaler
func (m MoneyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{IQD: m.iqd, USD: m.usd})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *MoneyValue) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid money value: %w", err)
	}
	m.iqd = v.IQD
	m.usd = v.USD
	return nil
}

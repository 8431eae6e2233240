package valueobject

import (
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction is the target currency of a conversion
type Direction string

const (
	ToIQD Direction = "to_iqd"
	ToUSD Direction = "to_usd"
)

// divisionPrecision bounds the digits kept by USD conversions before rounding
const divisionPrecision = 16

// Convert converts an amount with a USD→IQD rate: ToIQD multiplies, ToUSD divides.
// The result is unrounded; callers round for the target currency.
func Convert(amount, usdToIqdRate decimal.Decimal, direction Direction) (decimal.Decimal, error) {
	if !usdToIqdRate.IsPositive() {
		return decimal.Zero, shared.NewValidationError(shared.CodeDivisionByZero,
			"exchange rate must be positive to convert, got %s", usdToIqdRate.String())
	}
	switch direction {
	case ToIQD:
		return amount.Mul(usdToIqdRate), nil
	case ToUSD:
		return amount.DivRound(usdToIqdRate, divisionPrecision), nil
	default:
		return decimal.Zero, shared.NewValidationError(shared.CodeInvalidInput, "unknown conversion direction %q", direction)
	}
}

// Estimate is a display-only conversion. It is never persisted on documents.
type Estimate struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  Currency        `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Formatted string          `json:"formatted"`
	Estimate  bool            `json:"estimate"`
}

// EstimateIQD converts a USD amount into an IQD display estimate
func EstimateIQD(usd, usdToIqdRate decimal.Decimal) (Estimate, error) {
	v, err := Convert(usd, usdToIqdRate, ToIQD)
	if err != nil {
		return Estimate{}, err
	}
	v = IQD.Round(v)
	return Estimate{Amount: v, Currency: IQD, Rate: usdToIqdRate, Formatted: FormatAmount(v, IQD), Estimate: true}, nil
}

// EstimateUSD converts an IQD amount into a USD display estimate
func EstimateUSD(iqd, usdToIqdRate decimal.Decimal) (Estimate, error) {
	v, err := Convert(iqd, usdToIqdRate, ToUSD)
	if err != nil {
		return Estimate{}, err
	}
	v = USD.Round(v)
	return Estimate{Amount: v, Currency: USD, Rate: usdToIqdRate, Formatted: FormatAmount(v, USD), Estimate: true}, nil
}

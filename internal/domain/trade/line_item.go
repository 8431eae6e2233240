package trade

import (
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinUnitPriceIQD is the smallest dinar unit price a line accepts. Below it a
// quantity can round to a zero-dinar line or a zero-dinar return share.
var MinUnitPriceIQD = decimal.NewFromInt(1)

// LineItem is one product line with unit prices captured in both currencies
type LineItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   valueobject.MoneyValue
}

// ComputeLine returns quantity × unit price per currency, each rounded to
// its currency precision
func ComputeLine(item LineItem) (valueobject.MoneyValue, error) {
	if item.Quantity <= 0 {
		return valueobject.MoneyValue{}, shared.NewValidationError(shared.CodeInvalidQuantity,
			"quantity must be a positive integer, got %d", item.Quantity).
			WithDetail("product_id", item.ProductID.String())
	}
	if !item.UnitPrice.IQD().IsPositive() || !item.UnitPrice.USD().IsPositive() {
		return valueobject.MoneyValue{}, shared.NewValidationError(shared.CodeInvalidPrice,
			"unit prices must be greater than zero in both currencies, got %s", item.UnitPrice.String()).
			WithDetail("product_id", item.ProductID.String())
	}
	if item.UnitPrice.IQD().LessThan(MinUnitPriceIQD) {
		return valueobject.MoneyValue{}, shared.NewValidationError(shared.CodeInvalidPrice,
			"unit price must be at least %s IQD, got %s", MinUnitPriceIQD, item.UnitPrice.IQD()).
			WithDetail("product_id", item.ProductID.String())
	}
	return item.UnitPrice.Scale(item.Quantity).Round(), nil
}

// ComputeDocumentTotals returns the rounded line totals and their exact sum
func ComputeDocumentTotals(items []LineItem) ([]valueobject.MoneyValue, valueobject.MoneyValue, error) {
	if len(items) == 0 {
		return nil, valueobject.MoneyValue{}, shared.NewValidationError(shared.CodeEmptyDocument,
			"a document must contain at least one line")
	}
	lines := make([]valueobject.MoneyValue, len(items))
	total := valueobject.ZeroMoney()
	for i, item := range items {
		line, err := ComputeLine(item)
		if err != nil {
			return nil, valueobject.MoneyValue{}, err
		}
		lines[i] = line
		total = total.Add(line)
	}
	return lines, total, nil
}

// partialLineTotal is the share of a line covered by units from..to, computed
// as the difference of cumulative rounded amounts so that the shares of a
// line always add up to its rounded total
func partialLineTotal(price valueobject.MoneyValue, from, to int64) valueobject.MoneyValue {
	upper := price.Scale(to).Round()
	lower := price.Scale(from).Round()
	return upper.Subtract(lower)
}

// SumQuantities totals line quantities per product
func SumQuantities(items []LineItem) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(items))
	for _, it := range items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

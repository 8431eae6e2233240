package valueobject

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var displayPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount for display with digit grouping:
// "1,300,000 IQD" and "$1,234.50".
func FormatAmount(amount decimal.Decimal, c Currency) string {
	places := int(c.Places())
	f, _ := c.Round(amount).Float64()
	n := displayPrinter.Sprint(number.Decimal(f,
		number.MinFractionDigits(places),
		number.MaxFractionDigits(places),
	))
	if c == USD {
		if amount.IsNegative() {
			return "-$" + n[1:]
		}
		return "$" + n
	}
	return n + " IQD"
}

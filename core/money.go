package core

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

func init() {
	// amounts are plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatMoney renders an amount for activity descriptions, e.g. `৳1,500` or `৳1,500.50`.
func FormatMoney(symbol string, amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.Equal(amount.Truncate(0)) {
		return symbol + moneyPrinter.Sprintf("%d", amount.IntPart())
	}
	f, _ := amount.Float64()
	return symbol + moneyPrinter.Sprintf("%.2f", f)
}

package v1

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"SZL": "E",
	"ZAR": "R",
	"USD": "$",
}

// formatMoney renders d for display, e.g. "E349.99".
func formatMoney(currency string, d decimal.Decimal) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}
	return symbol + d.StringFixed(2)
}

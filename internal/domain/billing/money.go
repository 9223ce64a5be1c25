package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
}

// FormatAmount renders a minor-unit amount for human-readable log and alert text.
func FormatAmount(minor int64, currency string) string {
	value := decimal.New(minor, -2).StringFixed(2)
	cur := strings.ToLower(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[cur]; ok {
		return sym + value
	}
	if cur == "" {
		return value
	}
	return value + " " + strings.ToUpper(cur)
}

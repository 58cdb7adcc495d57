// Package clients implements the market-data provider clients backing the
// price oracle. Each client knows its provider's time resolution and which
// assets the provider quotes in the fiat currency.
package clients

var fiatCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"CAD": {},
	"JPY": {},
	"GBP": {},
	"CHF": {},
	"AUD": {},
	"KRW": {},
}

// isFiat reports whether code is a fiat currency code. Providers list fiat
// pairs (e.g. USD/EUR) next to crypto pairs; those are not assets to value.
func isFiat(code string) bool {
	_, ok := fiatCurrencies[code]
	return ok
}

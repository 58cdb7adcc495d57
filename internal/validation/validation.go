// Package validation checks trade preconditions before any computation runs.
// The engine itself trusts its input; everything here fails fast instead.
package validation

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"cession/internal/domain"
)

// SupportedAssets is the default allowlist of crypto-asset symbols the price
// sources are known to cover.
var SupportedAssets = []string{
	"BTC", "ETH", "XRP", "UNI", "LTC", "LINK", "XLM", "BCH", "AAVE", "SNX",
	"BAT", "MKR", "ZRX", "YFI", "UMA", "OMG", "KNC", "SDC", "PAX",
}

// CheckTrades verifies that trades satisfy the engine's preconditions:
// a uniform base currency equal to fiat, quantities/prices/amounts/fees all
// non-negative, assets within the allowlist, and timestamps in non-decreasing
// order. It returns the first violation found.
func CheckTrades(trades []domain.Trade, fiat string) error {
	return CheckTradesAllowing(trades, fiat, SupportedAssets)
}

// CheckTradesAllowing is CheckTrades with a caller-supplied asset allowlist.
func CheckTradesAllowing(trades []domain.Trade, fiat string, allowed []string) error {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}

	var unsupported []string
	for i, t := range trades {
		if t.BaseCurrency != fiat {
			return errors.Errorf("trade %d: base currency must be %s for all trades, got %s", i, fiat, t.BaseCurrency)
		}
		if t.Side != domain.SideBuy && t.Side != domain.SideSell {
			return errors.Errorf("trade %d: trade side must be either BUY or SELL", i)
		}
		if _, ok := allowedSet[t.Asset]; !ok {
			unsupported = append(unsupported, t.Asset)
		}
		if t.Quantity.IsNegative() || t.Price.IsNegative() || t.Amount.IsNegative() || t.Fee.IsNegative() {
			return errors.Errorf("trade %d: quantity, price, amount and fee are unsigned, all values must be non-negative", i)
		}
		if i > 0 && t.Time.Before(trades[i-1].Time) {
			return errors.Errorf("trade %d: trades are not sorted by increasing datetime", i)
		}
	}

	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		supported := append([]string(nil), allowed...)
		sort.Strings(supported)
		return errors.Errorf("unsupported cryptocurrencies: %s, supported currencies are: %s",
			strings.Join(dedup(unsupported), ","), strings.Join(supported, ","))
	}
	return nil
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

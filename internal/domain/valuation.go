package domain

import "github.com/shopspring/decimal"

// AssetValuation is the valuation of one held asset immediately before a sale.
type AssetValuation struct {
	// Quantity held before the sale.
	Quantity decimal.Decimal
	// SellPrice is the sale's own realized unit price. Populated only for the
	// asset actually sold by this sale.
	SellPrice decimal.Decimal
	// HasSellPrice reports whether SellPrice is populated.
	HasSellPrice bool
	// PublicPrice is the oracle-sourced reference price at the sale instant.
	PublicPrice decimal.Decimal
	// RefPrice is SellPrice when present, PublicPrice otherwise. This is the
	// price the valuation is computed with.
	RefPrice decimal.Decimal
	// Value is Quantity multiplied by RefPrice.
	Value decimal.Decimal
}

// Valuation is the portfolio valuation immediately before one sale.
type Valuation struct {
	// Assets per-asset valuations, keyed by symbol.
	Assets map[string]AssetValuation
	// Total portfolio value, the sum of all asset values. This is the
	// denominator of the liquidated fraction.
	Total decimal.Decimal
}

package domain

import "github.com/shopspring/decimal"

// Holdings maps an asset symbol to the quantity held. An asset that was never
// traded is simply absent; Quantity reports it as zero, which makes the
// "not yet traded means zero" rule explicit instead of relying on tabular
// fill-forward semantics.
type Holdings map[string]decimal.Decimal

// Quantity returns the held quantity of asset, zero when absent.
func (h Holdings) Quantity(asset string) decimal.Decimal {
	if h == nil {
		return decimal.Zero
	}
	return h[asset]
}

// Add increases the held quantity of asset by qty.
func (h Holdings) Add(asset string, qty decimal.Decimal) {
	h[asset] = h[asset].Add(qty)
}

// Sub decreases the held quantity of asset by qty.
func (h Holdings) Sub(asset string, qty decimal.Decimal) {
	h[asset] = h[asset].Sub(qty)
}

// Clone returns an independent copy.
func (h Holdings) Clone() Holdings {
	copied := make(Holdings, len(h))
	for asset, qty := range h {
		copied[asset] = qty
	}
	return copied
}

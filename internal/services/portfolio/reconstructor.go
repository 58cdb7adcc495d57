// Package portfolio reconstructs the holdings that existed before each sale.
package portfolio

import "cession/internal/domain"

// Reconstruct walks the ledger in order, maintaining running per-asset
// quantities, and records for every SELL the holdings as they stood before
// that trade executed. The optional initial holdings are added to every
// recorded snapshot.
//
// This is a pure function over validated input: no negative-quantity guard is
// performed here, an oversold ledger is the validator's failure, not ours.
func Reconstruct(ledger *domain.Ledger, initial domain.Holdings) map[int]domain.Holdings {
	snapshots := make(map[int]domain.Holdings)
	running := make(domain.Holdings)

	for i, t := range ledger.All() {
		if t.Side == domain.SideSell {
			snapshot := running.Clone()
			for asset, qty := range initial {
				snapshot.Add(asset, qty)
			}
			snapshots[i] = snapshot
		}

		switch t.Side {
		case domain.SideBuy:
			running.Add(t.Asset, t.Quantity)
		case domain.SideSell:
			running.Sub(t.Asset, t.Quantity)
		}
	}
	return snapshots
}

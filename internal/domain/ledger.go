package domain

import "iter"

// Ledger is an ordered sequence of trades sorted by time. Positions are
// stable and gap-free: every downstream result (holdings snapshots,
// valuations, PnL rows) is keyed by a trade's index in the ledger so results
// can always be joined back to input rows.
//
// A Ledger trusts its input. Sortedness and field preconditions are the
// validation package's job and must be checked before construction.
type Ledger struct {
	trades []Trade
}

// NewLedger wraps trades into a ledger, keeping the given order.
func NewLedger(trades []Trade) *Ledger {
	copied := make([]Trade, len(trades))
	copy(copied, trades)
	return &Ledger{trades: copied}
}

// Len returns the number of trades.
func (l *Ledger) Len() int {
	return len(l.trades)
}

// At returns the trade at position i.
func (l *Ledger) At(i int) Trade {
	return l.trades[i]
}

// All yields every trade with its position, in ledger order.
func (l *Ledger) All() iter.Seq2[int, Trade] {
	return func(yield func(int, Trade) bool) {
		for i, t := range l.trades {
			if !yield(i, t) {
				return
			}
		}
	}
}

// SaleIndices returns the positions of all SELL trades, in ledger order.
func (l *Ledger) SaleIndices() []int {
	var sales []int
	for i, t := range l.trades {
		if t.Side == SideSell {
			sales = append(sales, i)
		}
	}
	return sales
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PnL is the realized profit-and-loss record of a single sale, computed once
// per run and never mutated afterwards. Field order follows the reporting
// column order.
type PnL struct {
	// TradeIndex is the sale's position in the ledger.
	TradeIndex int
	// Time of the sale.
	Time time.Time
	// Side is always SideSell.
	Side Side
	// Asset sold.
	Asset string
	// Quantity sold.
	Quantity decimal.Decimal
	// Amount fiat received for the sale.
	Amount decimal.Decimal
	// Fee fiat paid for the sale.
	Fee decimal.Decimal
	// AmountNet is Amount minus Fee.
	AmountNet decimal.Decimal
	// PortfolioValue is the total portfolio value before the sale.
	PortfolioValue decimal.Decimal
	// PurchasePrice is the cumulative acquisition cost (amounts plus fees of
	// all earlier buys, plus any initial acquisition cost) before the sale.
	// Never reduced by sales.
	PurchasePrice decimal.Decimal
	// Fraction is the part of the net acquisition cost allocated to this sale.
	Fraction decimal.Decimal
	// FractionSum is the cumulative allocated fraction of all earlier sales,
	// snapshotted before this sale.
	FractionSum decimal.Decimal
	// PurchasePriceNet is PurchasePrice minus FractionSum.
	PurchasePriceNet decimal.Decimal
	// PnL is AmountNet minus Fraction, the realized gain or loss.
	PnL decimal.Decimal
}

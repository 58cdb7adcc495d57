// Package allocator implements the pro-rata cost-basis recurrence.
package allocator

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cession/internal/domain"
)

// Allocator turns per-sale portfolio valuations into allocated cost-basis
// fractions and realized PnL.
type Allocator struct {
	logger *zap.Logger
}

// New creates an Allocator.
func New(logger *zap.Logger) *Allocator {
	return &Allocator{logger: logger}
}

// Allocate runs the sequential recurrence over the sales of the ledger, in
// ledger order. Each sale liquidates amount/value of the portfolio and is
// allocated that fraction of the remaining (net) acquisition cost; the
// consumed fraction accumulates across sales, so the computation cannot be
// reordered or parallelized.
//
// initialCost is the acquisition cost of holdings owned before the first
// trade in the ledger.
func (a *Allocator) Allocate(ledger *domain.Ledger, valuations map[int]domain.Valuation, initialCost decimal.Decimal) ([]domain.PnL, error) {
	// Cumulative acquisition cost: amount+fee of every BUY, never reduced by
	// sales. Reduction happens only through the allocated fraction sum.
	purchasePrice := initialCost
	fractionSum := decimal.Zero
	one := decimal.NewFromInt(1)

	var rows []domain.PnL
	for i, t := range ledger.All() {
		if t.Side == domain.SideBuy {
			purchasePrice = purchasePrice.Add(t.Cost())
			continue
		}

		valuation, ok := valuations[i]
		if !ok {
			return nil, errors.Errorf("no valuation for sale %d", i)
		}
		if !valuation.Total.IsPositive() {
			return nil, errors.Errorf("sale %d: portfolio value before the sale must be strictly positive, got %s",
				i, valuation.Total)
		}

		purchasePriceNet := purchasePrice.Sub(fractionSum)
		liquidatedShare := t.Amount.Div(valuation.Total)
		if liquidatedShare.GreaterThan(one) {
			// Selling more value than the recorded portfolio holds. Kept
			// as-is: clamping or failing here would second-guess the input.
			a.logger.Warn("sale liquidates more than the recorded portfolio value",
				zap.Int("sale", i),
				zap.String("share", liquidatedShare.String()))
		}
		fraction := purchasePriceNet.Mul(liquidatedShare)

		rows = append(rows, domain.PnL{
			TradeIndex:       i,
			Time:             t.Time,
			Side:             t.Side,
			Asset:            t.Asset,
			Quantity:         t.Quantity,
			Amount:           t.Amount,
			Fee:              t.Fee,
			AmountNet:        t.AmountNet(),
			PortfolioValue:   valuation.Total,
			PurchasePrice:    purchasePrice,
			Fraction:         fraction,
			FractionSum:      fractionSum,
			PurchasePriceNet: purchasePriceNet,
			PnL:              t.AmountNet().Sub(fraction),
		})
		fractionSum = fractionSum.Add(fraction)
	}
	return rows, nil
}

// Package valuator computes the total portfolio value before each sale.
package valuator

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/domain"
	"cession/internal/services/oracle"
)

// Valuate values the holdings before every sale in the ledger. The asset
// being sold is priced at the sale's own realized unit price; every held
// asset additionally gets the oracle's public reference price at the sale
// instant. Per-asset value is quantity times the reference price, and the
// total is the denominator of the liquidated fraction downstream.
//
// Any oracle failure aborts the valuation unmodified: a missing reference
// price must never be silently valued at zero.
func Valuate(ctx context.Context, ledger *domain.Ledger, holdingsBySale map[int]domain.Holdings, src oracle.Source) (map[int]domain.Valuation, error) {
	valuations := make(map[int]domain.Valuation, len(holdingsBySale))

	for _, i := range ledger.SaleIndices() {
		sale := ledger.At(i)
		holdings, ok := holdingsBySale[i]
		if !ok {
			return nil, errors.Errorf("no holdings snapshot for sale %d", i)
		}

		assets := make([]string, 0, len(holdings))
		for asset := range holdings {
			assets = append(assets, asset)
		}
		sort.Strings(assets)

		valuation := domain.Valuation{Assets: make(map[string]domain.AssetValuation, len(assets))}
		total := decimal.Zero
		for _, asset := range assets {
			qty := holdings.Quantity(asset)
			if qty.IsZero() {
				continue
			}

			public, err := src.Price(ctx, asset, sale.Time)
			if err != nil {
				return nil, errors.Wrapf(err, "valuating sale %d (%s at %s)", i, sale.Asset, sale.Time)
			}

			av := domain.AssetValuation{
				Quantity:    qty,
				PublicPrice: public,
				RefPrice:    public,
			}
			if asset == sale.Asset {
				av.SellPrice = sale.Price
				av.HasSellPrice = true
				av.RefPrice = sale.Price
			}
			av.Value = qty.Mul(av.RefPrice)
			total = total.Add(av.Value)
			valuation.Assets[asset] = av
		}
		valuation.Total = total
		valuations[i] = valuation
	}
	return valuations, nil
}

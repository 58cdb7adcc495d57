package clients

import (
	"context"
	"sort"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/services/oracle"
)

const binanceKlineLimit = 100

// Binance fetches minute-close prices from the Binance klines API through the
// public (unauthenticated) endpoints. Like Bitstamp, one fetch seeds up to
// 100 minute buckets.
type Binance struct {
	client *binance.Client
	fiat   string
	assets []string
}

// NewBinance creates the client and downloads the exchange info once to learn
// which trading symbols are quoted in fiat.
func NewBinance(ctx context.Context, client *binance.Client, fiat string) (*Binance, error) {
	b := &Binance{client: client, fiat: fiat}

	info, err := client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance: download exchange info")
	}
	for _, s := range info.Symbols {
		if s.QuoteAsset == fiat && s.Status == "TRADING" && !isFiat(s.BaseAsset) {
			b.assets = append(b.assets, s.BaseAsset)
		}
	}
	sort.Strings(b.assets)
	return b, nil
}

// Name identifies the provider.
func (b *Binance) Name() string { return "binance" }

// Assets lists the assets Binance quotes in the fiat currency.
func (b *Binance) Assets() []string { return b.assets }

// Resolution is one minute, matching the 1m kline interval.
func (b *Binance) Resolution() time.Duration { return time.Minute }

// Fetch downloads 1m klines starting at the rounded instant and returns one
// close-price quote per kline, timestamped at the kline's open.
func (b *Binance) Fetch(ctx context.Context, asset string, at time.Time) ([]oracle.Quote, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(asset + b.fiat).
		Interval("1m").
		StartTime(at.UnixMilli()).
		Limit(binanceKlineLimit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "binance: download %s klines", asset)
	}

	quotes := make([]oracle.Quote, 0, len(klines))
	for _, k := range klines {
		price, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "binance kline close %q is not a number", k.Close)
		}
		quotes = append(quotes, oracle.Quote{
			Asset: asset,
			Time:  time.UnixMilli(k.OpenTime).UTC(),
			Price: price,
		})
	}
	return quotes, nil
}

package clients

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/services/oracle"
)

const bybitKlineLimit = 100

// Bybit fetches minute-close prices from the Bybit spot klines API.
type Bybit struct {
	client *bybit.Client
	fiat   string
	assets []string
}

// NewBybit creates the client and downloads the spot instruments list once to
// learn which symbols are quoted in fiat. The underlying SDK does not take a
// context; cancellation is bounded by the SDK's own HTTP client.
func NewBybit(_ context.Context, client *bybit.Client, fiat string) (*Bybit, error) {
	b := &Bybit{client: client, fiat: fiat}

	result, err := client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
		Category: bybit.CategoryV5Spot,
	})
	if err != nil {
		return nil, errors.Wrap(err, "bybit: download instruments info")
	}
	if result.Result.Spot == nil {
		return nil, errors.New("bybit: instruments info has no spot section")
	}
	for _, inst := range result.Result.Spot.List {
		base := string(inst.BaseCoin)
		if string(inst.QuoteCoin) == fiat && !isFiat(base) {
			b.assets = append(b.assets, base)
		}
	}
	sort.Strings(b.assets)
	return b, nil
}

// Name identifies the provider.
func (b *Bybit) Name() string { return "bybit" }

// Assets lists the assets Bybit quotes in the fiat currency.
func (b *Bybit) Assets() []string { return b.assets }

// Resolution is one minute, matching the 1-minute kline interval.
func (b *Bybit) Resolution() time.Duration { return time.Minute }

// Fetch downloads 1-minute spot klines starting at the rounded instant and
// returns one close-price quote per kline.
func (b *Bybit) Fetch(_ context.Context, asset string, at time.Time) ([]oracle.Quote, error) {
	start := at.UnixMilli()
	limit := bybitKlineLimit
	result, err := b.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(asset + b.fiat),
		Interval: bybit.Interval("1"),
		Start:    &start,
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "bybit: download %s klines", asset)
	}

	quotes := make([]oracle.Quote, 0, len(result.Result.List))
	for _, k := range result.Result.List {
		ms, err := strconv.ParseInt(k.StartTime, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "bybit kline start %q is not an integer", k.StartTime)
		}
		price, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "bybit kline close %q is not a number", k.Close)
		}
		quotes = append(quotes, oracle.Quote{
			Asset: asset,
			Time:  time.UnixMilli(ms).UTC(),
			Price: price,
		})
	}
	return quotes, nil
}

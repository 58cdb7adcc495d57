// Package oracle supplies fiat reference prices for crypto-assets at past
// instants, combining memoizing caches with an ordered multi-source fallback
// chain.
package oracle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrPriceUnavailable means no configured source could supply a quote for
	// the asset at the instant. It is fatal for the valuation run.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrProtocol means a source returned data violating its own contract,
	// e.g. a quote timestamp off the source's resolution grid. It marks a
	// source defect and is never retried.
	ErrProtocol = errors.New("price source protocol violation")
)

// Quote is a resolved (asset, instant) price point. Time is always aligned to
// the producing source's resolution grid.
type Quote struct {
	Asset string          `json:"asset"`
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// Source is the price-lookup capability the valuator depends on. Both cached
// concrete sources and the multi-source composite implement it, so sources
// compose uniformly.
type Source interface {
	// Assets lists the asset symbols this source can quote.
	Assets() []string
	// Price returns the fiat price of asset at the given instant, rounded to
	// the source's resolution. Fails with ErrPriceUnavailable when no quote
	// can be produced.
	Price(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error)
}

// Fetcher is implemented by the provider clients. A single fetch may return
// quotes for several nearby time buckets (bulk history downloads); the cached
// wrapper stores them all.
type Fetcher interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// Assets lists the asset symbols the provider quotes in the fiat currency.
	Assets() []string
	// Resolution is the provider's time-bucket size. Lookups are rounded to
	// it and every fetched quote must land exactly on its grid.
	Resolution() time.Duration
	// Fetch downloads quotes covering asset at the given (already rounded)
	// instant.
	Fetch(ctx context.Context, asset string, at time.Time) ([]Quote, error)
}

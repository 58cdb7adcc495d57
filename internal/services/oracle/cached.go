package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Journal receives every quote the cache resolves, so quotes can be replayed
// into a fresh cache on the next run.
type Journal interface {
	Append(Quote) error
}

type quoteKey struct {
	asset string
	unix  int64
}

// Cached wraps a Fetcher into a Source with an idempotent memoizing cache:
// a (asset, rounded instant) key, once resolved, never changes for the
// lifetime of the instance. There is no TTL and no eviction; the instance is
// meant to live for exactly one analysis run.
type Cached struct {
	logger  *zap.Logger
	fetcher Fetcher
	timeout time.Duration
	journal Journal

	group singleflight.Group
	mu    sync.RWMutex
	cache map[quoteKey]decimal.Decimal
}

// NewCached wraps fetcher with a memoizing cache. Each underlying fetch runs
// under timeout (no timeout when zero) and concurrent lookups of the same key
// are coalesced into a single fetch.
func NewCached(logger *zap.Logger, fetcher Fetcher, timeout time.Duration) *Cached {
	return &Cached{
		logger:  logger,
		fetcher: fetcher,
		timeout: timeout,
		cache:   make(map[quoteKey]decimal.Decimal),
	}
}

// WithJournal attaches a quote journal. Journal failures are logged, never
// fatal: persistence is an optimization, not part of the price contract.
func (c *Cached) WithJournal(journal Journal) *Cached {
	c.journal = journal
	return c
}

// Warm seeds the cache with previously resolved quotes, e.g. replayed from a
// journal. Quotes off the fetcher's resolution grid are skipped.
func (c *Cached) Warm(quotes []Quote) {
	res := c.fetcher.Resolution()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range quotes {
		if !q.Time.Truncate(res).Equal(q.Time) {
			c.logger.Warn("skipping warm quote off the resolution grid",
				zap.String("source", c.fetcher.Name()),
				zap.String("asset", q.Asset),
				zap.Time("time", q.Time))
			continue
		}
		k := quoteKey{asset: q.Asset, unix: q.Time.UnixNano()}
		if _, ok := c.cache[k]; !ok {
			c.cache[k] = q.Price
		}
	}
}

// Assets lists the fetcher's supported assets.
func (c *Cached) Assets() []string {
	return c.fetcher.Assets()
}

// Price resolves the fiat price of asset at the instant, rounded to the
// fetcher's resolution. A cache hit short-circuits the fetch; a miss fetches
// and stores every returned quote, and the requested key must be among them.
func (c *Cached) Price(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error) {
	rounded := at.Round(c.fetcher.Resolution())
	k := quoteKey{asset: asset, unix: rounded.UnixNano()}

	if price, ok := c.lookup(k); ok {
		return price, nil
	}

	// At most one in-flight fetch per key; losers of the race wait for the
	// winner's result instead of issuing a redundant external call.
	_, err, _ := c.group.Do(fmt.Sprintf("%s@%d", asset, k.unix), func() (interface{}, error) {
		if _, ok := c.lookup(k); ok {
			return nil, nil
		}
		return nil, c.fetch(ctx, asset, rounded)
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	price, ok := c.lookup(k)
	if !ok {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable,
			"%s: fetch succeeded but no quote for %s at %s", c.fetcher.Name(), asset, rounded)
	}
	return price, nil
}

func (c *Cached) lookup(k quoteKey) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.cache[k]
	return price, ok
}

func (c *Cached) fetch(ctx context.Context, asset string, rounded time.Time) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	quotes, err := c.fetcher.Fetch(ctx, asset, rounded)
	if err != nil {
		if errors.Is(err, ErrProtocol) {
			return err
		}
		return errors.Wrapf(ErrPriceUnavailable, "%s: could not download price for %s at %s: %v",
			c.fetcher.Name(), asset, rounded, err)
	}

	// A data point off the resolution grid breaks the source's contract;
	// fail loudly and cache nothing from the batch.
	res := c.fetcher.Resolution()
	for _, q := range quotes {
		if !q.Time.Truncate(res).Equal(q.Time) {
			return errors.Wrapf(ErrProtocol, "%s returned a quote for %s at %s not aligned to %s grid",
				c.fetcher.Name(), q.Asset, q.Time, res)
		}
	}

	c.store(quotes)
	return nil
}

func (c *Cached) store(quotes []Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range quotes {
		k := quoteKey{asset: q.Asset, unix: q.Time.UnixNano()}
		if _, ok := c.cache[k]; ok {
			// First write wins: resolved keys are immutable.
			continue
		}
		c.cache[k] = q.Price
		if c.journal != nil {
			if err := c.journal.Append(q); err != nil {
				c.logger.Warn("could not journal quote",
					zap.String("source", c.fetcher.Name()),
					zap.String("asset", q.Asset),
					zap.Error(err))
			}
		}
	}
}

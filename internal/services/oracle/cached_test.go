package oracle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves canned quotes and counts downloads.
type fakeFetcher struct {
	name       string
	resolution time.Duration
	quotes     []Quote
	err        error
	calls      atomic.Int64
}

func (f *fakeFetcher) Name() string              { return f.name }
func (f *fakeFetcher) Assets() []string          { return []string{"BTC", "ETH"} }
func (f *fakeFetcher) Resolution() time.Duration { return f.resolution }

func (f *fakeFetcher) Fetch(_ context.Context, asset string, _ time.Time) ([]Quote, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []Quote
	for _, q := range f.quotes {
		if q.Asset == asset {
			out = append(out, q)
		}
	}
	return out, nil
}

var saleTime = time.Date(2020, 9, 5, 16, 50, 0, 0, time.UTC)

func TestCachedFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes:     []Quote{{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)}},
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	for i := 0; i < 3; i++ {
		price, err := cached.Price(context.Background(), "BTC", saleTime)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromFloat(8722.70)))
	}
	assert.EqualValues(t, 1, fetcher.calls.Load(), "repeated lookups of the same key must not re-download")
}

func TestCachedRoundsToResolution(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes:     []Quote{{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)}},
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	price, err := cached.Price(context.Background(), "BTC", saleTime.Add(20*time.Second))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(8722.70)))
}

func TestCachedBulkSeeding(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes: []Quote{
			{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)},
			{Asset: "BTC", Time: saleTime.Add(time.Minute), Price: decimal.NewFromFloat(8723.10)},
			{Asset: "BTC", Time: saleTime.Add(2 * time.Minute), Price: decimal.NewFromFloat(8724.00)},
		},
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	_, err := cached.Price(context.Background(), "BTC", saleTime)
	require.NoError(t, err)

	// The whole batch was cached; later minutes are hits.
	price, err := cached.Price(context.Background(), "BTC", saleTime.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(8724.00)))
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestCachedFetchErrorIsPriceUnavailable(t *testing.T) {
	fetcher := &fakeFetcher{name: "fake", resolution: time.Minute, err: errors.New("boom")}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	_, err := cached.Price(context.Background(), "BTC", saleTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestCachedOffGridQuoteIsProtocolError(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes:     []Quote{{Asset: "BTC", Time: saleTime.Add(30 * time.Second), Price: decimal.NewFromInt(1)}},
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	_, err := cached.Price(context.Background(), "BTC", saleTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestCachedMissingRequestedQuote(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes:     []Quote{{Asset: "BTC", Time: saleTime.Add(time.Minute), Price: decimal.NewFromInt(1)}},
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	_, err := cached.Price(context.Background(), "BTC", saleTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestCachedWarm(t *testing.T) {
	fetcher := &fakeFetcher{name: "fake", resolution: time.Minute}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	cached.Warm([]Quote{
		{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)},
		// Off the minute grid, must be skipped.
		{Asset: "ETH", Time: saleTime.Add(10 * time.Second), Price: decimal.NewFromFloat(300.84)},
	})

	price, err := cached.Price(context.Background(), "BTC", saleTime)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(8722.70)))
	assert.EqualValues(t, 0, fetcher.calls.Load(), "warm quotes are cache hits")

	_, err = cached.Price(context.Background(), "ETH", saleTime)
	require.Error(t, err, "the off-grid quote was not warmed")
}

// slowFetcher blocks every download until release is closed.
type slowFetcher struct {
	*fakeFetcher
	release chan struct{}
}

func (f *slowFetcher) Fetch(ctx context.Context, asset string, at time.Time) ([]Quote, error) {
	<-f.release
	return f.fakeFetcher.Fetch(ctx, asset, at)
}

func TestCachedCoalescesConcurrentFetches(t *testing.T) {
	fetcher := &slowFetcher{
		fakeFetcher: &fakeFetcher{
			name:       "fake",
			resolution: time.Minute,
			quotes:     []Quote{{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)}},
		},
		release: make(chan struct{}),
	}
	cached := NewCached(zap.NewNop(), fetcher, 0)

	const lookups = 8
	var (
		wg     sync.WaitGroup
		prices [lookups]decimal.Decimal
		errs   [lookups]error
	)
	for i := 0; i < lookups; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prices[i], errs[i] = cached.Price(context.Background(), "BTC", saleTime)
		}(i)
	}
	close(fetcher.release)
	wg.Wait()

	for i := 0; i < lookups; i++ {
		require.NoError(t, errs[i])
		assert.True(t, prices[i].Equal(decimal.NewFromFloat(8722.70)))
	}
	assert.EqualValues(t, 1, fetcher.calls.Load(), "concurrent lookups of one key share a single download")
}

type recordingJournal struct {
	appended []Quote
}

func (j *recordingJournal) Append(q Quote) error {
	j.appended = append(j.appended, q)
	return nil
}

func TestCachedJournalsResolvedQuotes(t *testing.T) {
	fetcher := &fakeFetcher{
		name:       "fake",
		resolution: time.Minute,
		quotes: []Quote{
			{Asset: "BTC", Time: saleTime, Price: decimal.NewFromFloat(8722.70)},
			{Asset: "BTC", Time: saleTime.Add(time.Minute), Price: decimal.NewFromFloat(8723.10)},
		},
	}
	journal := &recordingJournal{}
	cached := NewCached(zap.NewNop(), fetcher, 0).WithJournal(journal)

	_, err := cached.Price(context.Background(), "BTC", saleTime)
	require.NoError(t, err)
	assert.Len(t, journal.appended, 2, "every quote of the batch is journaled")

	// A cache hit journals nothing new.
	_, err = cached.Price(context.Background(), "BTC", saleTime)
	require.NoError(t, err)
	assert.Len(t, journal.appended, 2)
}

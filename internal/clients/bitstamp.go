package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/services/oracle"
)

// BitstampBaseURL is the production Bitstamp API endpoint.
const BitstampBaseURL = "https://www.bitstamp.net"

const bitstampBinLimit = 100

// Bitstamp fetches minute-close prices from the public Bitstamp OHLC API.
// A single fetch downloads up to 100 one-minute bins, seeding the cache for
// nearby lookups in one round trip.
type Bitstamp struct {
	httpClient *http.Client
	baseURL    string
	fiat       string
	assets     []string
}

// NewBitstamp creates the client and downloads the provider's trading-pairs
// list once to learn which assets it quotes in fiat. baseURL falls back to
// the production endpoint when empty.
func NewBitstamp(ctx context.Context, httpClient *http.Client, baseURL, fiat string) (*Bitstamp, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = BitstampBaseURL
	}
	b := &Bitstamp{httpClient: httpClient, baseURL: baseURL, fiat: fiat}

	var pairs []struct {
		Name string `json:"name"`
	}
	if err := getJSON(ctx, httpClient, baseURL+"/api/v2/trading-pairs-info/", &pairs); err != nil {
		return nil, errors.Wrap(err, "bitstamp: download trading pairs")
	}
	for _, p := range pairs {
		base, quote, ok := strings.Cut(p.Name, "/")
		if !ok {
			continue
		}
		if quote == fiat && !isFiat(base) {
			b.assets = append(b.assets, base)
		}
	}
	sort.Strings(b.assets)
	return b, nil
}

// Name identifies the provider.
func (b *Bitstamp) Name() string { return "bitstamp" }

// Assets lists the assets Bitstamp quotes in the fiat currency.
func (b *Bitstamp) Assets() []string { return b.assets }

// Resolution is one minute: Bitstamp OHLC bins close on minute boundaries.
func (b *Bitstamp) Resolution() time.Duration { return time.Minute }

// Fetch downloads the minute bins starting at the rounded instant and returns
// one close-price quote per bin.
func (b *Bitstamp) Fetch(ctx context.Context, asset string, at time.Time) ([]oracle.Quote, error) {
	addr := fmt.Sprintf("%s/api/v2/ohlc/%s/?start=%d&step=60&limit=%d",
		b.baseURL, strings.ToLower(asset+b.fiat), at.Unix(), bitstampBinLimit)

	var resp struct {
		Data struct {
			Pair string `json:"pair"`
			OHLC []struct {
				Timestamp string `json:"timestamp"`
				Close     string `json:"close"`
			} `json:"ohlc"`
		} `json:"data"`
	}
	if err := getJSON(ctx, b.httpClient, addr, &resp); err != nil {
		return nil, errors.Wrapf(err, "bitstamp: download %s bins", asset)
	}

	wantPair := strings.ToUpper(asset) + "/" + b.fiat
	if resp.Data.Pair != wantPair {
		return nil, errors.Wrapf(oracle.ErrProtocol, "bitstamp answered for pair %q, requested %q",
			resp.Data.Pair, wantPair)
	}

	quotes := make([]oracle.Quote, 0, len(resp.Data.OHLC))
	for _, bin := range resp.Data.OHLC {
		ts, err := strconv.ParseInt(bin.Timestamp, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "bitstamp bin timestamp %q is not an integer", bin.Timestamp)
		}
		price, err := decimal.NewFromString(bin.Close)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "bitstamp bin close %q is not a number", bin.Close)
		}
		quotes = append(quotes, oracle.Quote{
			Asset: asset,
			Time:  time.Unix(ts, 0).UTC(),
			Price: price,
		})
	}
	return quotes, nil
}

// getJSON performs a GET request and decodes the JSON response body into out.
func getJSON(ctx context.Context, client *http.Client, addr string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: %s", addr, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

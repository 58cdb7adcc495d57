package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/services/oracle"
)

// KrakenBaseURL is the production Kraken API endpoint.
const KrakenBaseURL = "https://api.kraken.com"

// krakenCodebook maps Kraken's internal asset codes to the usual symbols.
var krakenCodebook = map[string]string{
	"XDAO": "DAO", "XETC": "ETC", "XETH": "ETH", "XICN": "ICN",
	"XLTC": "LTC", "XMLN": "MLN", "XNMC": "NMC", "XREP": "REP",
	"XREPV2": "REPV2", "XXBT": "BTC", "XBT": "BTC", "XXDG": "DOGE",
	"XDG": "DOGE", "XXLM": "XLM", "XXMR": "XMR", "XXRP": "XRP",
	"XXTZ": "XTZ", "XXVN": "XVN", "XZEC": "ZEC",
	"ZAUD": "AUD", "ZCAD": "CAD", "ZCHF": "CHF", "ZEUR": "EUR",
	"ZGBP": "GBP", "ZJPY": "JPY", "ZKRW": "KRW", "ZUSD": "USD",
}

func krakenToUsual(code string) string {
	if usual, ok := krakenCodebook[code]; ok {
		return usual
	}
	return code
}

// Kraken fetches prices from the public Kraken trades API: the price of an
// asset at an instant is the price of the first trade executed at or after
// it. One quote per fetch, at second resolution.
type Kraken struct {
	httpClient *http.Client
	baseURL    string
	fiat       string
	assets     []string
}

// NewKraken creates the client and downloads Kraken's asset-pairs list once,
// translating Kraken's internal asset codes to the usual symbols.
func NewKraken(ctx context.Context, httpClient *http.Client, baseURL, fiat string) (*Kraken, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = KrakenBaseURL
	}
	k := &Kraken{httpClient: httpClient, baseURL: baseURL, fiat: fiat}

	var resp struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			Base  string `json:"base"`
			Quote string `json:"quote"`
		} `json:"result"`
	}
	if err := getJSON(ctx, httpClient, baseURL+"/0/public/AssetPairs", &resp); err != nil {
		return nil, errors.Wrap(err, "kraken: download asset pairs")
	}
	if len(resp.Error) > 0 {
		return nil, errors.Errorf("kraken: asset pairs: %s", strings.Join(resp.Error, ", "))
	}

	seen := make(map[string]struct{})
	for _, p := range resp.Result {
		base := krakenToUsual(p.Base)
		quote := krakenToUsual(p.Quote)
		if quote != fiat || isFiat(base) {
			continue
		}
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		k.assets = append(k.assets, base)
	}
	sort.Strings(k.assets)
	return k, nil
}

// Name identifies the provider.
func (k *Kraken) Name() string { return "kraken" }

// Assets lists the assets Kraken quotes in the fiat currency.
func (k *Kraken) Assets() []string { return k.assets }

// Resolution is one second; the next-trade lookup has no coarser grid.
func (k *Kraken) Resolution() time.Duration { return time.Second }

// Fetch downloads the first trade at or after the instant and quotes its
// price for the requested time bucket.
func (k *Kraken) Fetch(ctx context.Context, asset string, at time.Time) ([]oracle.Quote, error) {
	addr := fmt.Sprintf("%s/0/public/Trades?pair=%s&since=%d", k.baseURL, asset+k.fiat, at.Unix())

	var resp struct {
		Error  []string                   `json:"error"`
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := getJSON(ctx, k.httpClient, addr, &resp); err != nil {
		return nil, errors.Wrapf(err, "kraken: download %s trades", asset)
	}
	if len(resp.Error) > 0 {
		return nil, errors.Errorf("kraken: trades for %s: %s", asset, strings.Join(resp.Error, ", "))
	}

	for key, raw := range resp.Result {
		if key == "last" {
			continue
		}
		var trades [][]interface{}
		if err := json.Unmarshal(raw, &trades); err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "kraken trades for %s are not a list: %v", asset, err)
		}
		if len(trades) == 0 || len(trades[0]) == 0 {
			return nil, errors.Errorf("kraken returned no trades for %s since %s", asset, at)
		}
		priceStr, ok := trades[0][0].(string)
		if !ok {
			return nil, errors.Wrapf(oracle.ErrProtocol, "kraken trade price for %s is not a string", asset)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, errors.Wrapf(oracle.ErrProtocol, "kraken trade price %q is not a number", priceStr)
		}
		return []oracle.Quote{{Asset: asset, Time: at, Price: price}}, nil
	}
	return nil, errors.Errorf("kraken returned no trade data for %s since %s", asset, at)
}

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultSources is the price-source priority order used when none is
// configured. Earlier sources are preferred.
var DefaultSources = []string{"bitstamp", "kraken"}

// Config is a single computation run.
type Config struct {
	// Fiat is the base currency all trades settle in.
	Fiat string
	// Year to report sales for.
	Year int
	// TradesCSV is the path of the Bitstamp transactions export.
	TradesCSV string
	// Sources is the price-source fallback order.
	Sources []string
	// InitialHoldings held before the first trade of the export.
	InitialHoldings map[string]decimal.Decimal
	// InitialPurchasePrice is the acquisition cost of InitialHoldings.
	InitialPurchasePrice decimal.Decimal
	// FetchTimeout bounds every external price fetch.
	FetchTimeout time.Duration
	// QuoteWALDir persists resolved quotes between runs; empty disables it.
	QuoteWALDir string
}

type configTmp struct {
	Fiat                 string            `yaml:"fiat"`
	Year                 int               `yaml:"year"`
	TradesCSV            string            `yaml:"trades_csv"`
	Sources              []string          `yaml:"sources,omitempty"`
	InitialHoldings      map[string]string `yaml:"initial_holdings,omitempty"`
	InitialPurchasePrice string            `yaml:"initial_purchase_price,omitempty"`
	FetchTimeout         string            `yaml:"fetch_timeout,omitempty"`
	QuoteWALDir          string            `yaml:"quote_wal_dir,omitempty"`
}

// Get loads the run configuration from the yaml file given with --config, or
// from the CLI flags when no file is given.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	fiat := flag.String("fiat", "EUR", "fiat base currency, example: EUR")
	year := flag.Int("year", time.Now().Year()-1, "calendar year to report sales for")
	trades := flag.String("trades", "", "path to the Bitstamp transactions csv export")
	sources := flag.String("sources", strings.Join(DefaultSources, ","), "price source priority order, comma separated")
	fetchTimeout := flag.Duration("fetchtimeout", 10*time.Second, "timeout for a single price fetch")
	quoteWALDir := flag.String("quotewal", "", "directory for the persistent quote journal, empty to disable")
	initialCost := flag.String("initialcost", "0",
		"acquisition cost of holdings owned before the first trade (per-asset quantities need the 'initial_holdings' yaml param)")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cost, err := decimal.NewFromString(*initialCost)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --initialcost provided, --initialcost=%s", *initialCost)
	}

	cfg := Config{
		Fiat:                 *fiat,
		Year:                 *year,
		TradesCSV:            *trades,
		Sources:              splitList(*sources),
		InitialPurchasePrice: cost,
		FetchTimeout:         *fetchTimeout,
		QuoteWALDir:          *quoteWALDir,
	}
	return cfg, cfg.check()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}
	return fromTmp(tmp)
}

func fromTmp(tmp configTmp) (Config, error) {
	cfg := Config{
		Fiat:                 tmp.Fiat,
		Year:                 tmp.Year,
		TradesCSV:            tmp.TradesCSV,
		Sources:              tmp.Sources,
		QuoteWALDir:          tmp.QuoteWALDir,
		FetchTimeout:         10 * time.Second,
		InitialPurchasePrice: decimal.Zero,
	}
	if cfg.Fiat == "" {
		cfg.Fiat = "EUR"
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = append([]string(nil), DefaultSources...)
	}
	if tmp.FetchTimeout != "" {
		timeout, err := time.ParseDuration(tmp.FetchTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fetch_timeout' param in yaml config: %w", err)
		}
		cfg.FetchTimeout = timeout
	}

	if tmp.InitialPurchasePrice != "" {
		price, err := decimal.NewFromString(tmp.InitialPurchasePrice)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'initial_purchase_price' param in yaml config: %w", err)
		}
		cfg.InitialPurchasePrice = price
	}
	if len(tmp.InitialHoldings) > 0 {
		cfg.InitialHoldings = make(map[string]decimal.Decimal, len(tmp.InitialHoldings))
		for asset, qty := range tmp.InitialHoldings {
			d, err := decimal.NewFromString(qty)
			if err != nil {
				return Config{}, fmt.Errorf("incorrect 'initial_holdings' quantity for %s in yaml config: %w", asset, err)
			}
			cfg.InitialHoldings[asset] = d
		}
	}
	return cfg, cfg.check()
}

func (c Config) check() error {
	if c.TradesCSV == "" {
		return fmt.Errorf("no trades file provided, use --trades or the 'trades_csv' yaml param")
	}
	if c.Year < 2009 {
		return fmt.Errorf("invalid year %d provided", c.Year)
	}
	for _, s := range c.Sources {
		switch s {
		case "bitstamp", "kraken", "binance", "bybit":
		default:
			return fmt.Errorf("unsupported price source %q, supported sources are: bitstamp, kraken, binance, bybit", s)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

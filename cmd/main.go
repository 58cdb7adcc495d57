// Command cession computes the capital gains of cryptocurrency sales from a
// Bitstamp account export, using the pooled average purchase price method.
//
// Usage:
//
//	cession --config config.yaml
//	cession --trades transactions.csv --year 2025 (uses CLI arguments)
//
// Public market data endpoints are used for portfolio valuation, no API keys
// are required.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cession/config"
	"cession/internal"
	"cession/internal/clients"
	"cession/internal/domain"
	"cession/internal/importer"
	"cession/internal/services/oracle"
	"cession/internal/services/taxreport"
	"cession/internal/storage/quotes"
	"cession/internal/validation"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	alert     = lipgloss.AdaptiveColor{Light: "#D94F70", Dark: "#F25D94"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	gainStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	lossStyle = lipgloss.NewStyle().Foreground(alert).Bold(true)
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx := context.Background()

	trades, err := loadTrades(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := validation.CheckTrades(trades, cfg.Fiat); err != nil {
		log.Fatal(err)
	}

	source, closeSources, err := buildSource(ctx, logger, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeSources()

	engine := internal.NewEngine(logger, source)
	report, err := engine.ForYear(ctx, domain.NewLedger(trades), cfg.Year, internal.Options{
		InitialHoldings:      domain.Holdings(cfg.InitialHoldings),
		InitialPurchasePrice: cfg.InitialPurchasePrice,
	})
	if err != nil {
		log.Fatal(err)
	}

	render(report, cfg.Fiat)
}

func loadTrades(cfg config.Config) ([]domain.Trade, error) {
	f, err := os.Open(cfg.TradesCSV)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.Bitstamp(f, time.Time{})
}

// buildSource constructs the configured price fetchers in priority order, each
// behind its own cache and, when a WAL directory is configured, its own
// persistent quote journal.
func buildSource(ctx context.Context, logger *zap.Logger, cfg config.Config) (oracle.Source, func(), error) {
	var (
		sources []oracle.Source
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("closing quote journal", zap.Error(err))
			}
		}
	}

	for _, name := range cfg.Sources {
		fetcher, err := newFetcher(ctx, name, cfg.Fiat)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		cached := oracle.NewCached(logger, fetcher, cfg.FetchTimeout)
		if cfg.QuoteWALDir != "" {
			store, err := quotes.NewWALStore(filepath.Join(cfg.QuoteWALDir, name))
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, store.Close)

			journaled, err := store.All()
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			cached.Warm(journaled)
			cached.WithJournal(store)
		}
		sources = append(sources, cached)
	}

	return oracle.NewMultiSource(logger, sources...), closeAll, nil
}

func newFetcher(ctx context.Context, name, fiat string) (oracle.Fetcher, error) {
	switch name {
	case "bitstamp":
		return clients.NewBitstamp(ctx, nil, "", fiat)
	case "kraken":
		return clients.NewKraken(ctx, nil, "", fiat)
	case "binance":
		return clients.NewBinance(ctx, binance.NewClient("", ""), fiat)
	case "bybit":
		return clients.NewBybit(ctx, bybit.NewClient(), fiat)
	default:
		return nil, fmt.Errorf("unsupported price source %q", name)
	}
}

func render(report taxreport.Report, fiat string) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("CAPITAL GAINS %d", report.Year)))

	if len(report.Rows) == 0 {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("No taxable sales this year."))
		return
	}

	var b strings.Builder
	for _, row := range report.Rows {
		fmt.Fprintf(&b, "%-12s  %s  portfolio %12s  cost %12s  pnl %s\n",
			row.Description,
			row.Time.Format("2006-01-02 15:04"),
			row.PortfolioValue.StringFixed(2),
			row.Fraction.StringFixed(2),
			amountStyle(row.PnL.PnL).Render(row.PnL.PnL.StringFixed(2)))
	}
	fmt.Fprintf(&b, "\nTotal: %s %s", amountStyle(report.TotalPnL).Render(report.TotalPnL.StringFixed(2)), fiat)

	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(b.String()))
}

func amountStyle(d decimal.Decimal) lipgloss.Style {
	if d.IsNegative() {
		return lossStyle
	}
	return gainStyle
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTmpDefaults(t *testing.T) {
	cfg, err := fromTmp(configTmp{
		Year:      2020,
		TradesCSV: "transactions.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Fiat)
	assert.Equal(t, DefaultSources, cfg.Sources)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.InitialPurchasePrice.IsZero())
	assert.Empty(t, cfg.QuoteWALDir)
}

func TestFromTmpInitialState(t *testing.T) {
	cfg, err := fromTmp(configTmp{
		Year:                 2020,
		TradesCSV:            "transactions.csv",
		InitialPurchasePrice: "4000.50",
		InitialHoldings:      map[string]string{"BTC": "1.5"},
	})
	require.NoError(t, err)

	assert.True(t, cfg.InitialPurchasePrice.Equal(decimal.NewFromFloat(4000.50)))
	assert.True(t, cfg.InitialHoldings["BTC"].Equal(decimal.NewFromFloat(1.5)))
}

func TestFromTmpErrors(t *testing.T) {
	tests := []struct {
		name    string
		tmp     configTmp
		wantErr string
	}{
		{
			name:    "missing trades file",
			tmp:     configTmp{Year: 2020},
			wantErr: "no trades file",
		},
		{
			name:    "implausible year",
			tmp:     configTmp{Year: 1999, TradesCSV: "t.csv"},
			wantErr: "invalid year",
		},
		{
			name:    "unknown source",
			tmp:     configTmp{Year: 2020, TradesCSV: "t.csv", Sources: []string{"coinbase"}},
			wantErr: `unsupported price source "coinbase"`,
		},
		{
			name:    "bad purchase price",
			tmp:     configTmp{Year: 2020, TradesCSV: "t.csv", InitialPurchasePrice: "abc"},
			wantErr: "initial_purchase_price",
		},
		{
			name:    "bad holding quantity",
			tmp:     configTmp{Year: 2020, TradesCSV: "t.csv", InitialHoldings: map[string]string{"BTC": "x"}},
			wantErr: "initial_holdings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromTmp(tt.tmp)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetYaml(t *testing.T) {
	body := `fiat: EUR
year: 2020
trades_csv: transactions.csv
sources: [bitstamp, binance]
fetch_timeout: 5s
quote_wal_dir: /tmp/quotes
initial_purchase_price: "1000"
initial_holdings:
  BTC: "0.5"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := getYaml(path)
	require.NoError(t, err)
	assert.Equal(t, 2020, cfg.Year)
	assert.Equal(t, []string{"bitstamp", "binance"}, cfg.Sources)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "/tmp/quotes", cfg.QuoteWALDir)
	assert.True(t, cfg.InitialPurchasePrice.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.InitialHoldings["BTC"].Equal(decimal.NewFromFloat(0.5)))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"bitstamp", "kraken"}, splitList("bitstamp, kraken"))
	assert.Equal(t, []string{"bitstamp"}, splitList("bitstamp,"))
	assert.Nil(t, splitList(""))
}

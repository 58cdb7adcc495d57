package taxreport

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cession/internal/domain"
)

func pnlRow(year int, asset string, qty, pnl float64) domain.PnL {
	return domain.PnL{
		Time:     time.Date(year, 9, 5, 16, 50, 0, 0, time.UTC),
		Side:     domain.SideSell,
		Asset:    asset,
		Quantity: decimal.NewFromFloat(qty),
		PnL:      decimal.NewFromFloat(pnl),
	}
}

func TestForYearFiltersAndTotals(t *testing.T) {
	rows := []domain.PnL{
		pnlRow(2019, "BTC", 1, 100),
		pnlRow(2020, "BTC", 0.5, -473.670227),
		pnlRow(2020, "ETH", 5, -206.197031),
		pnlRow(2021, "BTC", 1, 9605.415526),
	}

	report := ForYear(rows, 2020)
	assert.Equal(t, 2020, report.Year)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "SELL 0.50 BTC", report.Rows[0].Description)
	assert.Equal(t, "SELL 5.00 ETH", report.Rows[1].Description)
	assert.InDelta(t, -679.867258, report.TotalPnL.InexactFloat64(), 1e-6)
}

func TestForYearEmpty(t *testing.T) {
	report := ForYear([]domain.PnL{pnlRow(2019, "BTC", 1, 100)}, 2020)
	assert.Empty(t, report.Rows)
	assert.True(t, report.TotalPnL.IsZero())
}

func TestDescribe(t *testing.T) {
	row := pnlRow(2020, "BTC", 1, 0)
	assert.Equal(t, "SELL 1.00 BTC", Describe(row))
}

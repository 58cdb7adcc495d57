package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		input    string
		expected Side
		wantErr  bool
	}{
		{input: "BUY", expected: SideBuy},
		{input: "SELL", expected: SideSell},
		{input: "buy", wantErr: true},
		{input: "HOLD", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			side, err := ParseSide(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, side)
			assert.Equal(t, tt.input, side.String())
		})
	}
}

func TestTradeAmounts(t *testing.T) {
	trade := Trade{
		Amount: decimal.NewFromFloat(4361.35),
		Fee:    decimal.NewFromFloat(21.80675),
	}

	assert.True(t, trade.AmountNet().Equal(decimal.NewFromFloat(4339.54325)), "net = amount - fee")
	assert.True(t, trade.Cost().Equal(decimal.NewFromFloat(4383.15675)), "cost = amount + fee")
}

func TestLedgerSaleIndices(t *testing.T) {
	now := time.Now()
	ledger := NewLedger([]Trade{
		{Time: now, Side: SideBuy, Asset: "BTC"},
		{Time: now, Side: SideSell, Asset: "BTC"},
		{Time: now, Side: SideBuy, Asset: "ETH"},
		{Time: now, Side: SideSell, Asset: "ETH"},
	})

	assert.Equal(t, []int{1, 3}, ledger.SaleIndices())
	assert.Equal(t, 4, ledger.Len())
	assert.Equal(t, "ETH", ledger.At(2).Asset)
}

func TestLedgerCopiesInput(t *testing.T) {
	trades := []Trade{{Side: SideBuy, Asset: "BTC"}}
	ledger := NewLedger(trades)

	trades[0].Asset = "ETH"
	assert.Equal(t, "BTC", ledger.At(0).Asset)
}

func TestLedgerAllStopsEarly(t *testing.T) {
	ledger := NewLedger([]Trade{{Asset: "BTC"}, {Asset: "ETH"}, {Asset: "XRP"}})

	var seen []string
	for _, trade := range ledger.All() {
		seen = append(seen, trade.Asset)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"BTC", "ETH"}, seen)
}

// Package domain defines the core data structures of the capital-gains engine.
package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Side of a trade, buy or sell.
type Side int

const (
	// SideBuy acquisition of a crypto-asset for fiat.
	SideBuy Side = iota
	// SideSell disposal of a crypto-asset for fiat. Sales are the taxable events.
	SideSell
)

// String returns the canonical upper-case representation.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseSide parses the canonical BUY/SELL representation.
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, errors.Errorf("unknown trade side %q", s)
	}
}

// Trade is a single validated trade record. Trades are treated as immutable:
// the engine never modifies a trade after it entered a ledger.
type Trade struct {
	// Time the trade executed at.
	Time time.Time
	// Side buy or sell.
	Side Side
	// Asset crypto-asset symbol, e.g. BTC.
	Asset string
	// Quantity of the asset bought or sold.
	Quantity decimal.Decimal
	// Price fiat per unit actually realized by this trade.
	Price decimal.Decimal
	// BaseCurrency fiat code the trade settled in, uniform across a ledger.
	BaseCurrency string
	// Amount fiat value of the trade as reported by the exchange.
	Amount decimal.Decimal
	// Fee fiat fee paid for the trade.
	Fee decimal.Decimal
}

// AmountNet returns the fiat amount net of fees.
func (t Trade) AmountNet() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}

// Cost returns the full acquisition cost of the trade, fees included.
func (t Trade) Cost() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// String returns a human-readable representation.
func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s @ %s %s", t.Side, t.Quantity, t.Asset, t.Price, t.BaseCurrency)
}

// Package importer normalizes exchange account exports into canonical trades.
package importer

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cession/internal/domain"
)

// bitstampTimeLayout matches Datetime cells of Bitstamp exports,
// e.g. "Sep. 05, 2020, 04:50 PM".
const bitstampTimeLayout = "Jan. 02, 2006, 03:04 PM"

// Bitstamp reads a Bitstamp transactions export and returns the canonical
// buy/sell trades executed strictly after since. Deposits, withdrawals and
// other non-market rows are dropped; only "Market" transactions are trades.
func Bitstamp(r io.Reader, since time.Time) ([]domain.Trade, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read bitstamp export")
	}
	if len(records) == 0 {
		return nil, errors.New("bitstamp export is empty")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"Type", "Datetime", "Amount", "Value", "Rate", "Fee", "Sub Type"} {
		if _, ok := col[name]; !ok {
			return nil, errors.Errorf("bitstamp export is missing column %q", name)
		}
	}

	var trades []domain.Trade
	for n, rec := range records[1:] {
		if rec[col["Type"]] != "Market" {
			continue
		}

		when, err := time.Parse(bitstampTimeLayout, rec[col["Datetime"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse datetime", n+2)
		}
		if !when.After(since) {
			continue
		}

		side, err := domain.ParseSide(strings.ToUpper(rec[col["Sub Type"]]))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", n+2)
		}
		quantity, asset, err := splitValueUnit(rec[col["Amount"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse amount", n+2)
		}
		price, _, err := splitValueUnit(rec[col["Rate"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse rate", n+2)
		}
		amount, baseCurrency, err := splitValueUnit(rec[col["Value"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse value", n+2)
		}
		fee, _, err := splitValueUnit(rec[col["Fee"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse fee", n+2)
		}

		trades = append(trades, domain.Trade{
			Time:         when,
			Side:         side,
			Asset:        asset,
			Quantity:     quantity,
			Price:        price,
			BaseCurrency: baseCurrency,
			Amount:       amount,
			Fee:          fee,
		})
	}
	return trades, nil
}

// splitValueUnit splits cells like "0.50000000 BTC" into value and unit.
func splitValueUnit(cell string) (decimal.Decimal, string, error) {
	value, unit, ok := strings.Cut(strings.TrimSpace(cell), " ")
	if !ok {
		return decimal.Decimal{}, "", errors.Errorf("cell %q is not in \"value unit\" form", cell)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, "", errors.Wrapf(err, "cell %q", cell)
	}
	return d, unit, nil
}

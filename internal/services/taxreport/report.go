// Package taxreport shapes PnL rows into the declaration-ready yearly report.
package taxreport

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cession/internal/domain"
)

// Row is one reportable sale with its human-readable description.
type Row struct {
	domain.PnL
	// Description like "SELL 0.50 BTC".
	Description string
}

// Report is the set of sales to declare for one calendar year.
type Report struct {
	Year int
	Rows []Row
	// TotalPnL is the sum of the pnl column over the year's rows. Tax is due
	// on it only when positive.
	TotalPnL decimal.Decimal
}

// ForYear filters detailed PnL rows down to sales whose datetime falls within
// the calendar year and totals their PnL.
func ForYear(rows []domain.PnL, year int) Report {
	report := Report{Year: year, TotalPnL: decimal.Zero}
	for _, row := range rows {
		if row.Time.Year() != year {
			continue
		}
		report.Rows = append(report.Rows, Row{
			PnL:         row,
			Description: Describe(row),
		})
		report.TotalPnL = report.TotalPnL.Add(row.PnL)
	}
	return report
}

// Describe renders the per-sale description, e.g. "SELL 0.50 BTC".
func Describe(row domain.PnL) string {
	return fmt.Sprintf("%s %s %s", row.Side, row.Quantity.StringFixed(2), row.Asset)
}

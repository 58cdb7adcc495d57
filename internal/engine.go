// Package internal wires the computation pipeline together.
package internal

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cession/internal/domain"
	"cession/internal/services/allocator"
	"cession/internal/services/oracle"
	"cession/internal/services/portfolio"
	"cession/internal/services/taxreport"
	"cession/internal/services/valuator"
)

// Options carries the externally supplied initial state of a run.
type Options struct {
	// InitialHoldings held before the first trade in the ledger.
	InitialHoldings domain.Holdings
	// InitialPurchasePrice is the acquisition cost of InitialHoldings.
	InitialPurchasePrice decimal.Decimal
}

// Engine runs the full pipeline: reconstruct holdings, valuate them through
// the price source, allocate cost-basis fractions. A run is all-or-nothing:
// the first error aborts it and no partial result is returned.
type Engine struct {
	logger    *zap.Logger
	source    oracle.Source
	allocator *allocator.Allocator
}

// NewEngine creates an engine computing against the given price source. The
// source instance is expected to live for exactly one bounded analysis
// session; construct a fresh one per run.
func NewEngine(logger *zap.Logger, source oracle.Source) *Engine {
	return &Engine{
		logger:    logger,
		source:    source,
		allocator: allocator.New(logger),
	}
}

// Valuate exposes the per-sale portfolio valuations for inspection.
func (e *Engine) Valuate(ctx context.Context, ledger *domain.Ledger, opts Options) (map[int]domain.Valuation, error) {
	holdings := portfolio.Reconstruct(ledger, opts.InitialHoldings)
	return valuator.Valuate(ctx, ledger, holdings, e.source)
}

// Detailed computes the PnL record of every sale in the ledger.
func (e *Engine) Detailed(ctx context.Context, ledger *domain.Ledger, opts Options) ([]domain.PnL, error) {
	run := uuid.New().String()
	log := e.logger.With(zap.String("run", run))
	log.Info("computing taxable pnls",
		zap.Int("trades", ledger.Len()),
		zap.Int("sales", len(ledger.SaleIndices())))

	holdings := portfolio.Reconstruct(ledger, opts.InitialHoldings)
	log.Debug("holdings reconstructed", zap.Int("snapshots", len(holdings)))

	valuations, err := valuator.Valuate(ctx, ledger, holdings, e.source)
	if err != nil {
		return nil, errors.Wrap(err, "portfolio valuation failed")
	}
	log.Debug("portfolio valuated")

	rows, err := e.allocator.Allocate(ledger, valuations, opts.InitialPurchasePrice)
	if err != nil {
		return nil, errors.Wrap(err, "cost basis allocation failed")
	}
	log.Info("pnl computed", zap.Int("rows", len(rows)))
	return rows, nil
}

// ForYear computes the year's declaration report: the sales of that calendar
// year with descriptions and the total PnL.
func (e *Engine) ForYear(ctx context.Context, ledger *domain.Ledger, year int, opts Options) (taxreport.Report, error) {
	rows, err := e.Detailed(ctx, ledger, opts)
	if err != nil {
		return taxreport.Report{}, err
	}
	return taxreport.ForYear(rows, year), nil
}

package oracle

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MultiSource composes an ordered list of sources into one. The order is a
// priority policy: for each lookup the first listed source that declares
// support for the asset is tried first, and every failure falls through to
// the next candidate. MultiSource implements Source itself, so composites
// nest without special-casing.
type MultiSource struct {
	logger  *zap.Logger
	sources []Source
	// supported[i] mirrors sources[i].Assets() as a set.
	supported []map[string]struct{}
	assets    []string
}

// NewMultiSource builds a composite over sources, in priority order.
func NewMultiSource(logger *zap.Logger, sources ...Source) *MultiSource {
	m := &MultiSource{logger: logger, sources: sources}

	union := make(map[string]struct{})
	for _, s := range sources {
		set := make(map[string]struct{})
		for _, asset := range s.Assets() {
			set[asset] = struct{}{}
			union[asset] = struct{}{}
		}
		m.supported = append(m.supported, set)
	}
	for asset := range union {
		m.assets = append(m.assets, asset)
	}
	sort.Strings(m.assets)
	return m
}

// Assets returns the union of all member sources' assets, sorted.
func (m *MultiSource) Assets() []string {
	return m.assets
}

// Price tries each supporting source in order and returns the first success.
// Failures are swallowed and logged; when every eligible source fails, or no
// source supports the asset, the lookup fails with ErrPriceUnavailable.
func (m *MultiSource) Price(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error) {
	var lastErr error
	for i, s := range m.sources {
		if _, ok := m.supported[i][asset]; !ok {
			continue
		}
		price, err := s.Price(ctx, asset, at)
		if err == nil {
			return price, nil
		}
		lastErr = err
		m.logger.Debug("price source failed, trying next",
			zap.Int("source", i),
			zap.String("asset", asset),
			zap.Time("at", at),
			zap.Error(err))
	}

	if lastErr == nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "no source supports %s", asset)
	}
	return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable,
		"could not download price for %s at %s, last error: %v", asset, at, lastErr)
}

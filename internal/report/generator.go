package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/metrics"
)

// Generator assembles a Report from the aggregation layer.
type Generator struct {
	queries     metrics.Queries
	moversLimit int
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(queries metrics.Queries) *Generator {
	return &Generator{
		queries:     queries,
		moversLimit: metrics.DefaultMoversLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithMoversLimit overrides how many gainers and losers are listed.
func (g *Generator) WithMoversLimit(n int) *Generator {
	if n > 0 {
		g.moversLimit = n
	}
	return g
}

// Generate computes every view. A view with no data or an unreachable
// benchmark becomes a warning instead of failing the whole report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	r := &Report{GeneratedAt: g.now()}

	top, err := g.queries.TopCoins(ctx)
	if err == nil {
		r.TopCoins = top
	} else if err := noteOrFail(r, "market overview", err); err != nil {
		return nil, err
	}

	gainers, err := g.queries.TopMovers(ctx, domain.DirectionGainers, g.moversLimit)
	if err == nil {
		r.Gainers = gainers
	} else if err := noteOrFail(r, "top gainers", err); err != nil {
		return nil, err
	}

	losers, err := g.queries.TopMovers(ctx, domain.DirectionLosers, g.moversLimit)
	if err == nil {
		r.Losers = losers
	} else if err := noteOrFail(r, "top losers", err); err != nil {
		return nil, err
	}

	volume, err := g.queries.TradedVolume(ctx, time.Time{}, time.Time{})
	if err == nil {
		r.Volume = volume
	} else if err := noteOrFail(r, "traded volume", err); err != nil {
		return nil, err
	}

	sentiment, err := g.queries.MarketSentiment(ctx)
	if err == nil {
		r.Sentiment = sentiment
	} else if err := noteOrFail(r, "market sentiment", err); err != nil {
		return nil, err
	}

	dominance, err := g.queries.VolumeDominance(ctx)
	if err == nil {
		r.Dominance = dominance
	} else if err := noteOrFail(r, "volume dominance", err); err != nil {
		return nil, err
	}

	return r, nil
}

// noteOrFail downgrades a recoverable per-view failure to a warning.
// Missing data and a benchmark outage are recoverable; anything else
// aborts the report.
func noteOrFail(r *Report, view string, err error) error {
	if errors.Is(err, metrics.ErrNoData) || errors.Is(err, metrics.ErrBenchmarkUnavailable) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", view, err))
		return nil
	}
	return fmt.Errorf("%s: %w", view, err)
}

package metrics

import (
	"context"
	"time"

	"memecoin-radar/internal/domain"
)

// Queries is the read surface the HTTP API serves. The Aggregator
// implements it directly; the cache layer decorates it.
type Queries interface {
	// TopCoins returns the highest-capitalized coins and the market total.
	TopCoins(ctx context.Context) (*domain.TopCoinsReport, error)

	// TopMovers ranks coins by percentage price change over the trailing
	// window. n <= 0 applies the default limit.
	TopMovers(ctx context.Context, direction domain.Direction, n int) (*domain.TopMoversReport, error)

	// TradedVolume returns the per-day market-wide volume series. Zero
	// bounds default to the trailing month ending now.
	TradedVolume(ctx context.Context, start, end time.Time) (*domain.TradedVolumeReport, error)

	// MarketSentiment returns the cap-weighted bull/bear indicator.
	MarketSentiment(ctx context.Context) (*domain.SentimentReport, error)

	// VolumeDominance returns the meme share of combined meme plus
	// benchmark traded volume.
	VolumeDominance(ctx context.Context) (*domain.DominanceReport, error)
}

var _ Queries = (*Aggregator)(nil)

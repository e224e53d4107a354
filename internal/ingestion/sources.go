package ingestion

import (
	"context"
	"time"

	"memecoin-radar/internal/coingecko"
)

// MarketSource is the slice of the CoinGecko API the ingestion pipeline
// consumes.
type MarketSource interface {
	// MemeMarkets returns one page of the meme-token listing. An empty
	// page means the listing is exhausted.
	MemeMarkets(ctx context.Context, page int) ([]coingecko.MarketCoin, error)

	// MarketChartRange returns a coin's price, market-cap and volume
	// series between start and end.
	MarketChartRange(ctx context.Context, coinID string, start, end time.Time) (*coingecko.MarketChart, error)
}

package report

import (
	"time"

	"memecoin-radar/internal/domain"
)

// Report is a point-in-time rendering of every dashboard view. Sections
// are nil when the underlying query had nothing to return; Warnings
// records why.
type Report struct {
	GeneratedAt time.Time

	TopCoins  *domain.TopCoinsReport
	Gainers   *domain.TopMoversReport
	Losers    *domain.TopMoversReport
	Volume    *domain.TradedVolumeReport
	Sentiment *domain.SentimentReport
	Dominance *domain.DominanceReport

	Warnings []string
}

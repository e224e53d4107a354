package domain

// Report views returned by the metrics aggregator. All of them are derived
// per request from the observation store and never persisted. JSON field
// names are a fixed contract with the dashboard.

// CoinSnapshot is the per-coin projection of the most recent observation.
type CoinSnapshot struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	MarketCap float64 `json:"market_cap"`
}

// TopCoinsReport ranks tracked coins by market capitalization.
// TotalMarketCap covers every coin, not only the returned top slice.
type TopCoinsReport struct {
	TotalMarketCap float64        `json:"total_market_cap"`
	TopCoins       []CoinSnapshot `json:"top_10_coins"`
}

// PricePoint is one calendar day of a coin's price history.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// MoverRecord is a coin ranked by percentage price change over a window.
type MoverRecord struct {
	Symbol           string       `json:"symbol"`
	PercentageChange float64      `json:"percentage_change"`
	PriceHistory     []PricePoint `json:"price_history"`
}

// TopMoversReport lists the strongest gainers or losers.
type TopMoversReport struct {
	TopMovers []MoverRecord `json:"top_movers"`
}

// VolumePoint is the summed traded volume across all coins for one day.
type VolumePoint struct {
	Date        string  `json:"date"`
	TotalVolume float64 `json:"total_volume"`
}

// TradedVolumeReport is the per-day traded volume series for a date range.
type TradedVolumeReport struct {
	VolumeOverTime []VolumePoint `json:"volume_over_time"`
}

// SentimentReport carries the bull/bear breadth indicator in [0, 100].
// Values above 50 mean market cap is concentrated in advancing coins.
type SentimentReport struct {
	BearVsBullIndicator float64 `json:"bear_vs_bull_indicator"`
}

// DominanceReport compares meme traded volume against Bitcoin volume over
// the trailing week, as a share of the combined total in [0, 100].
type DominanceReport struct {
	BitcoinVsMemeIndicator float64 `json:"bitcoin_vs_meme_indicator"`
}

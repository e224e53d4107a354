package coingecko

import "time"

// MarketCoin is one row of /coins/markets: the coin identity plus its
// current market figures in the requested vs_currency.
type MarketCoin struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	CurrentPrice float64  `json:"current_price"`
	MarketCap    float64  `json:"market_cap"`
	TotalVolume  float64  `json:"total_volume"`
	MaxSupply    *float64 `json:"max_supply"`
}

// ChartPoint is one sampled value of a market-chart series.
type ChartPoint struct {
	Time  time.Time
	Value float64
}

// MarketChart holds the three series returned by /market_chart/range.
// The API samples all three at the same timestamps, but the lengths are
// not guaranteed equal; consumers must join by timestamp.
type MarketChart struct {
	Prices       []ChartPoint
	MarketCaps   []ChartPoint
	TotalVolumes []ChartPoint
}

// chartResponse mirrors the raw /market_chart/range payload: parallel
// lists of [timestamp_ms, value] pairs.
type chartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func chartPoints(raw [][2]float64) []ChartPoint {
	if len(raw) == 0 {
		return nil
	}
	points := make([]ChartPoint, len(raw))
	for i, pair := range raw {
		points[i] = ChartPoint{
			Time:  time.UnixMilli(int64(pair[0])).UTC(),
			Value: pair[1],
		}
	}
	return points
}

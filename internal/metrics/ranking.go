package metrics

import (
	"sort"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/normalization"
)

// TopMarketCap ranks snapshots by normalized market capitalization.
// The returned total sums every coin, not only the top n. A snapshot whose
// market cap fails to parse ranks as 0.0 rather than being dropped. Ties
// keep the stable-sort input order (coin id).
func TopMarketCap(snapshots map[string]*domain.Observation, n int) (float64, []domain.CoinSnapshot) {
	ids := make([]string, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := 0.0
	coins := make([]domain.CoinSnapshot, 0, len(ids))
	for _, id := range ids {
		o := snapshots[id]
		mc := normalization.Normalize(o.MarketCap)
		total += mc
		coins = append(coins, domain.CoinSnapshot{
			Symbol:    o.CoinID,
			LastPrice: normalization.Normalize(o.Price),
			MarketCap: mc,
		})
	}

	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].MarketCap > coins[j].MarketCap
	})

	if len(coins) > n {
		coins = coins[:n]
	}

	return total, coins
}

// CoinHistory is one coin's chronological daily price series within a window.
type CoinHistory struct {
	CoinID string
	Points []domain.PricePoint // dates ascending, prices normalized
}

// HistoriesFromDaily groups deduplicated daily observations into per-coin
// histories with normalized prices. Input must be ordered by coin_id, then
// date ascending (normalization.DailyObservations output).
func HistoriesFromDaily(daily []*domain.Observation) []CoinHistory {
	if len(daily) == 0 {
		return nil
	}

	var histories []CoinHistory
	var current *CoinHistory

	for _, o := range daily {
		if current == nil || current.CoinID != o.CoinID {
			if current != nil {
				histories = append(histories, *current)
			}
			current = &CoinHistory{CoinID: o.CoinID}
		}
		current.Points = append(current.Points, domain.PricePoint{
			Date:  o.Day(),
			Price: normalization.Normalize(o.Price),
		})
	}
	histories = append(histories, *current)

	return histories
}

// TopMovers ranks histories by percentage price change between their first
// and last daily point: (last-first)/first*100, or 0.0 when the first price
// is zero. Coins with fewer than 2 points are dropped, not scored as zero.
// Gainers sort descending, losers ascending; ties keep input order. Ranking
// compares full precision; the returned percentage is rounded to 2 decimals.
func TopMovers(histories []CoinHistory, n int, direction domain.Direction) []domain.MoverRecord {
	type scored struct {
		history CoinHistory
		change  float64
	}

	var movers []scored
	for _, h := range histories {
		if len(h.Points) < 2 {
			continue
		}
		first := h.Points[0].Price
		last := h.Points[len(h.Points)-1].Price
		change := 0.0
		if first != 0 {
			change = (last - first) / first * 100
		}
		movers = append(movers, scored{history: h, change: change})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		if direction == domain.DirectionLosers {
			return movers[i].change < movers[j].change
		}
		return movers[i].change > movers[j].change
	})

	if len(movers) > n {
		movers = movers[:n]
	}

	result := make([]domain.MoverRecord, len(movers))
	for i, m := range movers {
		result[i] = domain.MoverRecord{
			Symbol:           m.history.CoinID,
			PercentageChange: normalization.Round2(m.change),
			PriceHistory:     m.history.Points,
		}
	}

	return result
}

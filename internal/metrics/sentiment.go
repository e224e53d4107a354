package metrics

import (
	"sort"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/normalization"
)

// Sentiment computes the market-cap-weighted bull/bear breadth between two
// snapshot maps. For every coin present in both maps whose last price,
// previous price and market cap all parse strictly, the current market cap
// counts toward the total; it also counts as advancing when the price rose.
// Coins in only one map, or with an unparseable field, are skipped rather
// than zero-filled. Equal prices weigh the total but neither side.
//
// Returns advancing/total*100 in [0, 100], unrounded, or exactly 50.0 when
// the total weight is zero (neutral: nothing to compare).
func Sentiment(latest, previous map[string]*domain.Observation) float64 {
	// Sorted ids so float accumulation order is stable and repeated calls
	// produce bit-identical results.
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var advancing, total float64

	for _, coinID := range ids {
		cur := latest[coinID]
		prev, ok := previous[coinID]
		if !ok {
			continue
		}

		lastPrice, okLast := normalization.NormalizeOK(cur.Price)
		prevPrice, okPrev := normalization.NormalizeOK(prev.Price)
		marketCap, okCap := normalization.NormalizeOK(cur.MarketCap)
		if !okLast || !okPrev || !okCap {
			continue
		}

		total += marketCap
		if lastPrice > prevPrice {
			advancing += marketCap
		}
	}

	if total == 0 {
		return 50.0
	}
	return advancing / total * 100
}

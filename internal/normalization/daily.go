package normalization

import (
	"sort"

	"memecoin-radar/internal/domain"
)

// SortAscending orders observations by (date ASC, seq ASC) in place.
func SortAscending(obs []*domain.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		return compareObservations(obs[i], obs[j]) < 0
	})
}

// SortDescending orders observations by (date DESC, seq DESC) in place.
func SortDescending(obs []*domain.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		return compareObservations(obs[i], obs[j]) > 0
	})
}

// compareObservations returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// ordered by (date, seq).
func compareObservations(a, b *domain.Observation) int {
	if !a.Date.Equal(b.Date) {
		if a.Date.Before(b.Date) {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	return 0
}

// DailyObservations collapses observations to at most one per coin per UTC
// calendar day. Records are sorted by (date ASC, seq ASC) on a copy and the
// first record per (coin_id, day) survives, so a re-ingested duplicate never
// displaces the original. The result is ordered by coin_id, then date
// ascending — per coin, a chronological daily series.
func DailyObservations(obs []*domain.Observation) []*domain.Observation {
	if len(obs) == 0 {
		return nil
	}

	sorted := make([]*domain.Observation, len(obs))
	copy(sorted, obs)
	SortAscending(sorted)

	type dayKey struct {
		coinID string
		day    string
	}

	seen := make(map[dayKey]struct{}, len(sorted))
	result := make([]*domain.Observation, 0, len(sorted))
	for _, o := range sorted {
		k := dayKey{coinID: o.CoinID, day: o.Day()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, o)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CoinID != result[j].CoinID {
			return result[i].CoinID < result[j].CoinID
		}
		return compareObservations(result[i], result[j]) < 0
	})

	return result
}

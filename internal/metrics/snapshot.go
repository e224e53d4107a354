package metrics

import (
	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/normalization"
)

// SnapshotByCoin resolves the most recent observation per coin: a single
// descending pass with an insertion guard, so the first record seen for a
// coin wins and older ones are ignored. Input order does not matter; the
// slice is copied and sorted by (date DESC, seq DESC). Callers bound the
// snapshot instant by pre-filtering the observations (store GetAsOf).
func SnapshotByCoin(obs []*domain.Observation) map[string]*domain.Observation {
	sorted := make([]*domain.Observation, len(obs))
	copy(sorted, obs)
	normalization.SortDescending(sorted)

	snapshots := make(map[string]*domain.Observation, len(sorted))
	for _, o := range sorted {
		if _, exists := snapshots[o.CoinID]; exists {
			continue
		}
		snapshots[o.CoinID] = o
	}

	return snapshots
}

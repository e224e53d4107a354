package metrics

import (
	"sort"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/normalization"
)

// VolumeByDay sums normalized traded volume across all coins per calendar
// day. Input must already be deduplicated to one observation per coin per
// day (normalization.DailyObservations), so re-ingested days never count
// twice. Days with no observations produce no point; a day whose volumes
// normalize to zero still does. Result ordered by date ascending.
func VolumeByDay(daily []*domain.Observation) []domain.VolumePoint {
	if len(daily) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	for _, o := range daily {
		sums[o.Day()] += normalization.Normalize(o.TotalVolume)
	}

	days := make([]string, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]domain.VolumePoint, len(days))
	for i, day := range days {
		points[i] = domain.VolumePoint{Date: day, TotalVolume: sums[day]}
	}

	return points
}

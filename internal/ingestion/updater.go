package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"memecoin-radar/internal/coingecko"
	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
)

// DefaultBackfillDays is how far back a coin with no stored history is
// fetched on its first update.
const DefaultBackfillDays = 30

// Updater fetches price history for every registered coin and appends it
// to the observation store.
type Updater struct {
	source       MarketSource
	coins        storage.CoinStore
	observations storage.ObservationStore

	backfillDays int
	logger       *log.Logger
	now          func() time.Time
}

// UpdaterOptions contains configuration for creating an Updater.
type UpdaterOptions struct {
	Source       MarketSource
	Coins        storage.CoinStore
	Observations storage.ObservationStore
	BackfillDays int
	Logger       *log.Logger
	Now          func() time.Time
}

// NewUpdater creates a new price updater.
func NewUpdater(opts UpdaterOptions) *Updater {
	backfillDays := opts.BackfillDays
	if backfillDays <= 0 {
		backfillDays = DefaultBackfillDays
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Updater{
		source:       opts.Source,
		coins:        opts.Coins,
		observations: opts.Observations,
		backfillDays: backfillDays,
		logger:       logger,
		now:          now,
	}
}

// UpdateResult contains statistics from one update run.
type UpdateResult struct {
	Coins    int
	Fetched  int
	Inserted int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Run updates every registered coin from the day after its last stored
// observation, or from the backfill window when it has none. Per-coin
// failures are counted and logged, never abort the run.
func (u *Updater) Run(ctx context.Context) (*UpdateResult, error) {
	return u.run(ctx, u.sinceLatest)
}

// Backfill re-fetches the trailing window for every registered coin,
// ignoring what is already stored. Re-ingested days are harmless: reads
// keep the earliest insertion per day.
func (u *Updater) Backfill(ctx context.Context, days int) (*UpdateResult, error) {
	if days <= 0 {
		days = u.backfillDays
	}
	return u.run(ctx, func(ctx context.Context, coinID string, now time.Time) (time.Time, error) {
		return now.AddDate(0, 0, -days), nil
	})
}

func (u *Updater) run(ctx context.Context, since func(ctx context.Context, coinID string, now time.Time) (time.Time, error)) (*UpdateResult, error) {
	start := time.Now()
	result := &UpdateResult{}

	coins, err := u.coins.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	if len(coins) == 0 {
		u.logger.Println("No coins registered, nothing to update")
		return result, nil
	}

	u.logger.Printf("Starting price update for %d coins", len(coins))

	for _, coin := range coins {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Coins++

		fetched, inserted, err := u.updateCoin(ctx, coin.ID, since)
		result.Fetched += fetched
		if err != nil {
			u.logger.Printf("Error updating coin %s: %v", coin.ID, err)
			observability.RecordIngestionError("update")
			result.Failed++
			continue
		}
		if inserted == 0 {
			result.Skipped++
			continue
		}

		result.Inserted += inserted
		observability.RecordCoinUpdated()
	}

	result.Duration = time.Since(start)
	u.logger.Printf("Update complete: %d coins, %d fetched, %d inserted, %d skipped, %d failed in %v",
		result.Coins, result.Fetched, result.Inserted, result.Skipped, result.Failed, result.Duration)

	observability.MarkUpdateSuccess(time.Now().Unix())

	return result, nil
}

func (u *Updater) updateCoin(ctx context.Context, coinID string, since func(ctx context.Context, coinID string, now time.Time) (time.Time, error)) (fetched, inserted int, err error) {
	now := u.now()

	from, err := since(ctx, coinID, now)
	if err != nil {
		return 0, 0, err
	}
	if from.After(now) {
		return 0, 0, nil
	}

	chart, err := u.source.MarketChartRange(ctx, coinID, from, now)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch chart: %w", err)
	}

	observations := observationsFromChart(coinID, chart)
	observability.RecordObservationsFetched(len(observations))
	if len(observations) == 0 {
		return 0, 0, nil
	}

	if err := u.observations.InsertBulk(ctx, observations); err != nil {
		return len(observations), 0, fmt.Errorf("insert observations: %w", err)
	}
	observability.RecordObservationsInserted(len(observations))

	return len(observations), len(observations), nil
}

// sinceLatest resumes from the day after the last stored observation, or
// opens the backfill window for a coin with no history.
func (u *Updater) sinceLatest(ctx context.Context, coinID string, now time.Time) (time.Time, error) {
	latest, err := u.observations.LatestDate(ctx, coinID)
	if errors.Is(err, storage.ErrNotFound) {
		return now.AddDate(0, 0, -u.backfillDays), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest date: %w", err)
	}
	return latest.AddDate(0, 0, 1), nil
}

// observationsFromChart joins the three chart series by timestamp. The
// price series drives; a missing cap or volume sample becomes "0".
func observationsFromChart(coinID string, chart *coingecko.MarketChart) []*domain.Observation {
	if chart == nil || len(chart.Prices) == 0 {
		return nil
	}

	caps := make(map[time.Time]float64, len(chart.MarketCaps))
	for _, p := range chart.MarketCaps {
		caps[p.Time] = p.Value
	}
	volumes := make(map[time.Time]float64, len(chart.TotalVolumes))
	for _, p := range chart.TotalVolumes {
		volumes[p.Time] = p.Value
	}

	observations := make([]*domain.Observation, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		observations = append(observations, &domain.Observation{
			CoinID:      coinID,
			Date:        p.Time,
			Price:       formatValue(p.Value),
			MarketCap:   formatValue(caps[p.Time]),
			TotalVolume: formatValue(volumes[p.Time]),
		})
	}
	return observations
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/normalization"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
)

// ErrNoData is returned when an aggregation yields an empty result set.
// Distinct from a store failure: the query ran and found nothing, which
// callers must not confuse with a legitimate zero.
var ErrNoData = errors.New("no data for requested range")

// ErrBenchmarkUnavailable is returned when the Bitcoin benchmark volume
// cannot be fetched for the dominance view.
var ErrBenchmarkUnavailable = errors.New("benchmark volume unavailable")

const (
	// TopCoinsLimit is the fixed size of the market-cap ranking.
	TopCoinsLimit = 10

	// DefaultMoversLimit is the mover count when the caller does not ask for one.
	DefaultMoversLimit = 5

	// MoversWindowDays is the trailing look-back for change computation.
	MoversWindowDays = 7

	// SentimentWindowDays is the sentiment comparison span in calendar days,
	// today included: the previous snapshot cuts at the first day of the window.
	SentimentWindowDays = 7

	// DominanceWindowDays is the volume comparison span against Bitcoin.
	DominanceWindowDays = 7

	// DefaultVolumeRangeDays is the traded-volume window when dates are omitted.
	DefaultVolumeRangeDays = 30

	// DefaultQueryTimeout bounds every store query so an unreachable store
	// fails fast instead of hanging the request.
	DefaultQueryTimeout = 5 * time.Second
)

// BenchmarkSource supplies Bitcoin traded volume for the dominance view.
// Implemented by the CoinGecko client.
type BenchmarkSource interface {
	BitcoinVolumeRange(ctx context.Context, start, end time.Time) (float64, error)
}

// Aggregator computes the dashboard views from the observation store.
// Stateless: every call reads the store at call time and discards all
// intermediate state, so concurrent calls share nothing but the store
// handle. Nothing is cached here; a caching layer wraps from outside.
type Aggregator struct {
	observations storage.ObservationStore
	benchmark    BenchmarkSource
	queryTimeout time.Duration
	now          func() time.Time
}

// AggregatorOptions configures optional Aggregator behavior.
type AggregatorOptions struct {
	// Benchmark supplies Bitcoin volume for VolumeDominance. Nil disables
	// the view.
	Benchmark BenchmarkSource

	// QueryTimeout bounds each store call. Zero means DefaultQueryTimeout.
	QueryTimeout time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// NewAggregator creates a metrics aggregator over the observation store.
func NewAggregator(obs storage.ObservationStore, opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		observations: obs,
		benchmark:    opts.Benchmark,
		queryTimeout: opts.QueryTimeout,
		now:          opts.Now,
	}
	if a.queryTimeout <= 0 {
		a.queryTimeout = DefaultQueryTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// TopCoins ranks every tracked coin by market capitalization as of now.
// The report total covers all coins; the list holds the top 10.
func (a *Aggregator) TopCoins(ctx context.Context) (*domain.TopCoinsReport, error) {
	obs, err := a.getAsOf(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	total, top := TopMarketCap(SnapshotByCoin(obs), TopCoinsLimit)

	return &domain.TopCoinsReport{
		TotalMarketCap: total,
		TopCoins:       top,
	}, nil
}

// TopMovers ranks coins by percentage price change over the trailing 7-day
// window. n <= 0 falls back to DefaultMoversLimit.
func (a *Aggregator) TopMovers(ctx context.Context, direction domain.Direction, n int) (*domain.TopMoversReport, error) {
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid direction %q", direction)
	}
	if n <= 0 {
		n = DefaultMoversLimit
	}

	end := a.now()
	start := end.AddDate(0, 0, -MoversWindowDays)

	obs, err := a.getRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	histories := HistoriesFromDaily(normalization.DailyObservations(obs))

	return &domain.TopMoversReport{
		TopMovers: TopMovers(histories, n, direction),
	}, nil
}

// TradedVolume sums traded volume across all coins per calendar day.
// A zero end defaults to now, a zero start to end minus 30 days.
func (a *Aggregator) TradedVolume(ctx context.Context, start, end time.Time) (*domain.TradedVolumeReport, error) {
	if end.IsZero() {
		end = a.now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -DefaultVolumeRangeDays)
	}

	obs, err := a.getRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	return &domain.TradedVolumeReport{
		VolumeOverTime: VolumeByDay(normalization.DailyObservations(obs)),
	}, nil
}

// MarketSentiment computes the bull/bear indicator over the fixed 7-day
// window, rounded to 2 decimals at this boundary.
func (a *Aggregator) MarketSentiment(ctx context.Context) (*domain.SentimentReport, error) {
	now := a.now()

	latestObs, err := a.getAsOf(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(latestObs) == 0 {
		return nil, ErrNoData
	}

	prevCutoff := now.AddDate(0, 0, -(SentimentWindowDays - 1))
	previousObs, err := a.getAsOf(ctx, prevCutoff)
	if err != nil {
		return nil, err
	}

	indicator := Sentiment(SnapshotByCoin(latestObs), SnapshotByCoin(previousObs))

	return &domain.SentimentReport{
		BearVsBullIndicator: normalization.Round2(indicator),
	}, nil
}

// VolumeDominance compares meme traded volume against Bitcoin volume over
// the trailing 7 days, as a share of the combined total clamped to [0, 100].
func (a *Aggregator) VolumeDominance(ctx context.Context) (*domain.DominanceReport, error) {
	if a.benchmark == nil {
		return nil, ErrBenchmarkUnavailable
	}

	end := a.now()
	start := end.AddDate(0, 0, -DominanceWindowDays)

	obs, err := a.getRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	memeVolume := 0.0
	for _, p := range VolumeByDay(normalization.DailyObservations(obs)) {
		memeVolume += p.TotalVolume
	}

	bitcoinVolume, err := a.benchmark.BitcoinVolumeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBenchmarkUnavailable, err)
	}

	indicator := 0.0
	if combined := bitcoinVolume + memeVolume; combined > 0 {
		indicator = memeVolume / combined * 100
	}
	if indicator < 0 {
		indicator = 0
	}
	if indicator > 100 {
		indicator = 100
	}

	return &domain.DominanceReport{
		BitcoinVsMemeIndicator: indicator,
	}, nil
}

// getAsOf loads observations under the query timeout. Errors mean the
// backend is unavailable, never "no rows".
func (a *Aggregator) getAsOf(ctx context.Context, asOf time.Time) ([]*domain.Observation, error) {
	qctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	startedAt := time.Now()
	obs, err := a.observations.GetAsOf(qctx, asOf)
	observability.RecordAggregationQuery("as_of", time.Since(startedAt).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return obs, nil
}

// getRange loads a date range under the query timeout.
func (a *Aggregator) getRange(ctx context.Context, start, end time.Time) ([]*domain.Observation, error) {
	qctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	startedAt := time.Now()
	obs, err := a.observations.GetRange(qctx, start, end)
	observability.RecordAggregationQuery("range", time.Since(startedAt).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return obs, nil
}

package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/storage"
)

// Helper to parse a calendar day in UTC.
func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DayFormat, s)
	require.NoError(t, err)
	return d
}

func TestObservationStore_InsertAndGetRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "dogecoin", Date: mustDay(t, "2025-08-01"), Price: "0.10", MarketCap: "1000", TotalVolume: "50"},
		{CoinID: "dogecoin", Date: mustDay(t, "2025-08-02"), Price: "0.12", MarketCap: "1200", TotalVolume: "60"},
		{CoinID: "shiba-inu", Date: mustDay(t, "2025-08-01"), Price: "0.00001", MarketCap: "500", TotalVolume: "20"},
		{CoinID: "dogecoin", Date: mustDay(t, "2025-08-05"), Price: "0.15", MarketCap: "1500", TotalVolume: "80"},
	})
	require.NoError(t, err)

	obs, err := store.GetRange(ctx, mustDay(t, "2025-08-01"), mustDay(t, "2025-08-02"))
	require.NoError(t, err)
	require.Len(t, obs, 3, "2025-08-05 must fall outside the range")

	// Ascending by date
	require.Equal(t, "2025-08-01", obs[0].Day())
	require.Equal(t, "2025-08-01", obs[1].Day())
	require.Equal(t, "2025-08-02", obs[2].Day())
}

func TestObservationStore_RangeIsInclusive(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "1", MarketCap: "1", TotalVolume: "1"},
		{CoinID: "a", Date: mustDay(t, "2025-08-03"), Price: "1", MarketCap: "1", TotalVolume: "1"},
	})
	require.NoError(t, err)

	obs, err := store.GetRange(ctx, mustDay(t, "2025-08-01"), mustDay(t, "2025-08-03"))
	require.NoError(t, err)
	require.Len(t, obs, 2, "both boundary days must be included")
}

func TestObservationStore_GetAsOf(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "1", MarketCap: "1", TotalVolume: "1"},
		{CoinID: "a", Date: mustDay(t, "2025-08-04"), Price: "2", MarketCap: "2", TotalVolume: "2"},
		{CoinID: "a", Date: mustDay(t, "2025-08-07"), Price: "3", MarketCap: "3", TotalVolume: "3"},
	})
	require.NoError(t, err)

	obs, err := store.GetAsOf(ctx, mustDay(t, "2025-08-04"))
	require.NoError(t, err)
	require.Len(t, obs, 2, "2025-08-07 is after the cutoff")
	require.Equal(t, "2025-08-04", obs[0].Day(), "newest first")

	// Zero cutoff means unbounded
	all, err := store.GetAsOf(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "2025-08-07", all[0].Day())
}

func TestObservationStore_SequenceOrdersReingestions(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	// Two ingestion runs write the same coin-day with different values
	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "first", MarketCap: "1", TotalVolume: "1"},
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "second", MarketCap: "2", TotalVolume: "2"},
	})
	require.NoError(t, err)

	desc, err := store.GetAsOf(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	require.Equal(t, "second", desc[0].Price, "later ingestion run wins descending order")
	require.Greater(t, desc[0].Seq, desc[1].Seq)

	asc, err := store.GetRange(ctx, mustDay(t, "2025-08-01"), mustDay(t, "2025-08-01"))
	require.NoError(t, err)
	require.Equal(t, "first", asc[0].Price, "earlier ingestion run comes first ascending")
}

func TestObservationStore_RawValuesSurviveRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	// Dirty strings are stored untouched; cleanup is the readers' job
	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "$0.12", MarketCap: "1,234,567.89", TotalVolume: "n/a"},
	})
	require.NoError(t, err)

	obs, err := store.GetAsOf(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	require.Equal(t, "$0.12", obs[0].Price)
	require.Equal(t, "1,234,567.89", obs[0].MarketCap)
	require.Equal(t, "n/a", obs[0].TotalVolume)
}

func TestObservationStore_LatestDate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	_, err := store.LatestDate(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Date: mustDay(t, "2025-08-01"), Price: "1", MarketCap: "1", TotalVolume: "1"},
		{CoinID: "a", Date: mustDay(t, "2025-08-05"), Price: "1", MarketCap: "1", TotalVolume: "1"},
		{CoinID: "b", Date: mustDay(t, "2025-08-03"), Price: "1", MarketCap: "1", TotalVolume: "1"},
	})
	require.NoError(t, err)

	latest, err := store.LatestDate(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, mustDay(t, "2025-08-05"), latest)

	latest, err = store.LatestDate(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, mustDay(t, "2025-08-03"), latest)
}

func TestObservationStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "", Date: mustDay(t, "2025-08-01"), Price: "1", MarketCap: "1", TotalVolume: "1"},
	})
	require.True(t, errors.Is(err, storage.ErrInvalidInput))

	err = store.InsertBulk(ctx, []*domain.Observation{
		{CoinID: "a", Price: "1", MarketCap: "1", TotalVolume: "1"},
	})
	require.True(t, errors.Is(err, storage.ErrInvalidInput))

	// Nothing was written
	obs, err := store.GetAsOf(ctx, time.Time{})
	require.NoError(t, err)
	require.Empty(t, obs)
}

func TestObservationStore_EmptyBatchIsNoop(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewObservationStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

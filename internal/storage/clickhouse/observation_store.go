package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
)

// ObservationStore implements storage.ObservationStore using ClickHouse.
type ObservationStore struct {
	conn *Conn
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(conn *Conn) *ObservationStore {
	return &ObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// InsertBulk appends observations in one batch. Values are stored raw:
// whatever string the ingestion produced goes in unmodified, normalization
// happens at read time. Seq is assigned here from the batch start time, so
// rows from a later ingestion run always order after earlier ones.
func (s *ObservationStore) InsertBulk(ctx context.Context, obs []*domain.Observation) (err error) {
	if len(obs) == 0 {
		return nil
	}

	// Validate all before inserting any
	for _, o := range obs {
		if o == nil || o.CoinID == "" || o.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_bulk", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO observations (
			coin_id, date, price, market_cap, total_volume, seq
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	base := uint64(start.UnixNano())
	for i, o := range obs {
		err = batch.Append(
			o.CoinID, o.Date.UTC(), o.Price, o.MarketCap, o.TotalVolume, base+uint64(i),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAsOf retrieves all observations dated at or before asOf, newest first
// with seq breaking date ties. A zero asOf returns the whole store.
func (s *ObservationStore) GetAsOf(ctx context.Context, asOf time.Time) (obs []*domain.Observation, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "get_as_of", time.Since(start).Seconds(), err)
	}()

	if asOf.IsZero() {
		query := `
			SELECT coin_id, date, price, market_cap, total_volume, seq
			FROM observations
			ORDER BY date DESC, seq DESC
		`
		rows, err := s.conn.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query observations: %w", err)
		}
		defer rows.Close()

		return scanObservations(rows)
	}

	query := `
		SELECT coin_id, date, price, market_cap, total_volume, seq
		FROM observations
		WHERE date <= ?
		ORDER BY date DESC, seq DESC
	`
	rows, err := s.conn.Query(ctx, query, asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("query observations as of: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetRange retrieves observations dated within [start, end] (inclusive),
// oldest first with seq breaking date ties.
func (s *ObservationStore) GetRange(ctx context.Context, start, end time.Time) (obs []*domain.Observation, err error) {
	began := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "get_range", time.Since(began).Seconds(), err)
	}()

	query := `
		SELECT coin_id, date, price, market_cap, total_volume, seq
		FROM observations
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, seq ASC
	`
	rows, err := s.conn.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query observations by range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// LatestDate returns the most recent observation date for a coin.
// Returns ErrNotFound when the coin has no observations.
func (s *ObservationStore) LatestDate(ctx context.Context, coinID string) (latest time.Time, err error) {
	start := time.Now()
	defer func() {
		// A coin without observations is an answer, not a query failure.
		e := err
		if errors.Is(e, storage.ErrNotFound) {
			e = nil
		}
		observability.RecordDBQuery("clickhouse", "latest_date", time.Since(start).Seconds(), e)
	}()

	query := `
		SELECT date FROM observations
		WHERE coin_id = ?
		ORDER BY date DESC
		LIMIT 1
	`
	rows, err := s.conn.Query(ctx, query, coinID)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest date: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return time.Time{}, fmt.Errorf("iterate latest date: %w", err)
		}
		return time.Time{}, storage.ErrNotFound
	}

	if err := rows.Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("scan latest date: %w", err)
	}
	return latest.UTC(), nil
}

// chRows abstracts the driver rows for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanObservations scans multiple rows.
func scanObservations(rows chRows) ([]*domain.Observation, error) {
	var obs []*domain.Observation

	for rows.Next() {
		var o domain.Observation

		err := rows.Scan(
			&o.CoinID, &o.Date, &o.Price, &o.MarketCap, &o.TotalVolume, &o.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}

		o.Date = o.Date.UTC()
		obs = append(obs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	return obs, nil
}

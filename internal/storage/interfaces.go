package storage

import (
	"context"
	"time"

	"memecoin-radar/internal/domain"
)

// ObservationStore provides access to the observations time-series.
//
// Observations are append-mostly: ingestion inserts, readers aggregate.
// Values are stored raw (see domain.Observation) and every insert is stamped
// with a monotonic sequence, so reads have a deterministic order even when
// independent ingestion runs wrote the same calendar day.
type ObservationStore interface {
	// InsertBulk adds a batch of observations, assigning each a sequence.
	// Returns ErrInvalidInput when a record is missing coin_id or date.
	InsertBulk(ctx context.Context, obs []*domain.Observation) error

	// GetAsOf retrieves all observations with date <= asOf, ordered by
	// (date DESC, seq DESC). A zero asOf means no upper bound.
	GetAsOf(ctx context.Context, asOf time.Time) ([]*domain.Observation, error)

	// GetRange retrieves observations within [start, end] (inclusive),
	// ordered by (date ASC, seq ASC).
	GetRange(ctx context.Context, start, end time.Time) ([]*domain.Observation, error)

	// LatestDate returns the most recent observation date for a coin.
	// Returns ErrNotFound when the coin has no observations.
	LatestDate(ctx context.Context, coinID string) (time.Time, error)
}

// CoinStore provides access to the tracked-coin registry.
type CoinStore interface {
	// Upsert inserts a coin or refreshes its mutable fields if the id exists.
	Upsert(ctx context.Context, c *domain.Coin) error

	// GetByID retrieves a coin by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Coin, error)

	// GetAll retrieves all tracked coins, ordered by id.
	GetAll(ctx context.Context) ([]*domain.Coin, error)
}

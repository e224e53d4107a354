package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
)

// CoinStore implements storage.CoinStore using PostgreSQL.
type CoinStore struct {
	pool *Pool
}

// NewCoinStore creates a new CoinStore.
func NewCoinStore(pool *Pool) *CoinStore {
	return &CoinStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CoinStore = (*CoinStore)(nil)

// Upsert inserts a coin or refreshes its listing fields. added_at is set on
// first insert and never touched by a refresh.
func (s *CoinStore) Upsert(ctx context.Context, c *domain.Coin) (err error) {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "upsert", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO coins (coin_id, symbol, name, image, max_supply)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (coin_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			image = EXCLUDED.image,
			max_supply = EXCLUDED.max_supply
	`

	_, err = s.pool.Exec(ctx, query, c.ID, c.Symbol, c.Name, c.Image, c.MaxSupply)
	if err != nil {
		return fmt.Errorf("upsert coin: %w", err)
	}
	return nil
}

// GetByID retrieves a coin by its id. Returns ErrNotFound if not exists.
func (s *CoinStore) GetByID(ctx context.Context, id string) (coin *domain.Coin, err error) {
	start := time.Now()
	defer func() {
		// An unknown coin is an answer, not a query failure.
		e := err
		if errors.Is(e, storage.ErrNotFound) {
			e = nil
		}
		observability.RecordDBQuery("postgres", "get_by_id", time.Since(start).Seconds(), e)
	}()

	query := `
		SELECT coin_id, symbol, name, image, max_supply, added_at
		FROM coins
		WHERE coin_id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	c, err := scanCoin(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get coin by id: %w", err)
	}
	return c, nil
}

// GetAll retrieves all tracked coins, ordered by id.
func (s *CoinStore) GetAll(ctx context.Context) (coins []*domain.Coin, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "get_all", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT coin_id, symbol, name, image, max_supply, added_at
		FROM coins
		ORDER BY coin_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all coins: %w", err)
	}
	defer rows.Close()

	return scanCoins(rows)
}

// scanCoin scans a single row into a Coin.
func scanCoin(row pgx.Row) (*domain.Coin, error) {
	var c domain.Coin

	err := row.Scan(
		&c.ID,
		&c.Symbol,
		&c.Name,
		&c.Image,
		&c.MaxSupply,
		&c.AddedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// scanCoins scans multiple rows into a slice of Coin.
func scanCoins(rows pgx.Rows) ([]*domain.Coin, error) {
	var coins []*domain.Coin

	for rows.Next() {
		var c domain.Coin

		err := rows.Scan(
			&c.ID,
			&c.Symbol,
			&c.Name,
			&c.Image,
			&c.MaxSupply,
			&c.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan coin row: %w", err)
		}

		coins = append(coins, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coin rows: %w", err)
	}

	return coins, nil
}

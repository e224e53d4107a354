package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memecoin-radar/internal/observability"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool. The coin registry sees
// light traffic (discovery upserts plus registry reads), so the pool stays
// small.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	config.MaxConns = 8
	config.MinConns = 1
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// Ping verifies connectivity and refreshes the connection gauges.
func (p *Pool) Ping(ctx context.Context) error {
	err := p.Pool.Ping(ctx)

	stat := p.Stat()
	observability.SetDBConnections("postgres", "acquired", int(stat.AcquiredConns()))
	observability.SetDBConnections("postgres", "idle", int(stat.IdleConns()))
	observability.SetDBConnections("postgres", "total", int(stat.TotalConns()))

	return err
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Package main provides one-shot ingestion runs for cron-style scheduling:
// discover registers new meme coins, update pulls price history since the
// last stored day, backfill re-pulls a fixed trailing window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memecoin-radar/internal/coingecko"
	"memecoin-radar/internal/config"
	"memecoin-radar/internal/ingestion"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
	chstore "memecoin-radar/internal/storage/clickhouse"
	"memecoin-radar/internal/storage/memory"
	"memecoin-radar/internal/storage/migrations"
	pgstore "memecoin-radar/internal/storage/postgres"
)

// ingestStores holds the storage implementations for one run.
type ingestStores struct {
	coins        storage.CoinStore
	observations storage.ObservationStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	mode := flag.String("mode", "update", "Ingestion mode: discover, update, or backfill")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage (dry runs only, data is discarded)")
	apiKey := flag.String("coingecko-api-key", cfg.CoinGeckoAPIKey, "CoinGecko demo API key")
	backfillDays := flag.Int("backfill-days", cfg.BackfillDays, "History window for new coins and backfill mode")
	maxPages := flag.Int("discovery-max-pages", cfg.DiscoveryMaxPages, "Market pages to scan in discover mode")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory
	cfg.CoinGeckoAPIKey = *apiKey
	cfg.BackfillDays = *backfillDays
	cfg.DiscoveryMaxPages = *maxPages

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create stores
	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	client := newCoinGeckoClient(cfg)

	// Run based on mode
	var runErr error
	switch *mode {
	case "discover":
		runErr = runDiscover(ctx, logger, cfg, stores, client)
	case "update":
		runErr = runUpdate(ctx, logger, cfg, stores, client)
	case "backfill":
		runErr = runBackfill(ctx, logger, cfg, stores, client)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	// Signal completion to shutdown handler
	done <- runErr
	cancel()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Fatalf("Error: %v", runErr)
	}
}

// runDiscover scans the CoinGecko meme category and registers new coins.
func runDiscover(ctx context.Context, logger *log.Logger, cfg *config.Config, stores *ingestStores, client *coingecko.Client) error {
	discoverer := ingestion.NewDiscoverer(ingestion.DiscovererOptions{
		Source:   client,
		Coins:    stores.coins,
		MaxPages: cfg.DiscoveryMaxPages,
		Logger:   logger,
	})

	result, err := discoverer.Run(ctx)
	if err != nil {
		return err
	}
	if result.Errors > 0 {
		logger.Printf("Discovery finished with %d per-coin errors", result.Errors)
	}
	return nil
}

// runUpdate pulls price history for every registered coin since its last
// stored observation.
func runUpdate(ctx context.Context, logger *log.Logger, cfg *config.Config, stores *ingestStores, client *coingecko.Client) error {
	result, err := newUpdater(cfg, stores, client, logger).Run(ctx)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		logger.Printf("Update finished with %d failed coins", result.Failed)
	}
	return nil
}

// runBackfill re-pulls the trailing window for every registered coin,
// ignoring what is already stored. Existing days keep their first value.
func runBackfill(ctx context.Context, logger *log.Logger, cfg *config.Config, stores *ingestStores, client *coingecko.Client) error {
	result, err := newUpdater(cfg, stores, client, logger).Backfill(ctx, cfg.BackfillDays)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		logger.Printf("Backfill finished with %d failed coins", result.Failed)
	}
	return nil
}

func newUpdater(cfg *config.Config, stores *ingestStores, client *coingecko.Client, logger *log.Logger) *ingestion.Updater {
	return ingestion.NewUpdater(ingestion.UpdaterOptions{
		Source:       client,
		Coins:        stores.coins,
		Observations: stores.observations,
		BackfillDays: cfg.BackfillDays,
		Logger:       logger,
	})
}

// newCoinGeckoClient builds the CoinGecko client from config.
func newCoinGeckoClient(cfg *config.Config) *coingecko.Client {
	opts := []coingecko.ClientOption{
		coingecko.WithPacing(cfg.CoinGeckoPacing),
	}
	if cfg.CoinGeckoAPIKey != "" {
		opts = append(opts, coingecko.WithAPIKey(cfg.CoinGeckoAPIKey))
	}
	if cfg.CoinGeckoBaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.CoinGeckoBaseURL))
	}
	return coingecko.NewClient(opts...)
}

// createStores creates the required stores and runs migrations.
func createStores(ctx context.Context, cfg *config.Config) (*ingestStores, func(), error) {
	if cfg.UseMemory {
		stores := &ingestStores{
			coins:        memory.NewCoinStore(),
			observations: memory.NewObservationStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &ingestStores{
		coins:        pgstore.NewCoinStore(pool),
		observations: chstore.NewObservationStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Package main runs the unified service:
// - Discovery (scheduled): finds new meme coins on CoinGecko
// - Update (scheduled): pulls daily price history into the observation store
// - HTTP API: serves the dashboard views, health, status and metrics
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
	"sync"
	"syscall"
	"time"

	"memecoin-radar/internal/api"
	"memecoin-radar/internal/cache"
	"memecoin-radar/internal/coingecko"
	"memecoin-radar/internal/config"
	"memecoin-radar/internal/ingestion"
	"memecoin-radar/internal/metrics"
	"memecoin-radar/internal/storage"
	chstore "memecoin-radar/internal/storage/clickhouse"
	"memecoin-radar/internal/storage/memory"
	"memecoin-radar/internal/storage/migrations"
	pgstore "memecoin-radar/internal/storage/postgres"
)

// Server holds all components of the unified service.
type Server struct {
	cfg    *config.Config
	stores *allStores

	discoverer *ingestion.Discoverer
	updater    *ingestion.Updater
	httpAPI    *api.Server
	logger     *log.Logger

	// State
	mu               sync.Mutex
	updateRunning    bool
	discoveryRunning bool
}

// allStores holds the storage implementations plus their health probes.
type allStores struct {
	coins        storage.CoinStore
	observations storage.ObservationStore
	pingers      map[string]api.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	port := flag.Int("port", cfg.Port, "HTTP API port")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", cfg.RedisAddr, "Redis address for the query cache (empty disables caching)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	corsOrigin := flag.String("cors-origin", cfg.CORSAllowOrigin, "Allowed CORS origin for the API")
	apiKey := flag.String("coingecko-api-key", cfg.CoinGeckoAPIKey, "CoinGecko demo API key")
	updateInterval := flag.Duration("update-interval", cfg.UpdateInterval, "Price update interval")
	discoveryInterval := flag.Duration("discovery-interval", cfg.DiscoveryInterval, "Coin discovery interval")
	backfillDays := flag.Int("backfill-days", cfg.BackfillDays, "History window for newly discovered coins")
	ingest := flag.Bool("ingest", true, "Run scheduled ingestion (disable to serve queries only)")

	flag.Parse()

	// Write flag overrides back so a single struct carries the config
	cfg.Port = *port
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	cfg.RedisAddr = *redisAddr
	cfg.UseMemory = *useMemory
	cfg.CORSAllowOrigin = *corsOrigin
	cfg.CoinGeckoAPIKey = *apiKey
	cfg.UpdateInterval = *updateInterval
	cfg.DiscoveryInterval = *discoveryInterval
	cfg.BackfillDays = *backfillDays

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	cfg.Print()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// CoinGecko client, shared by ingestion and the dominance benchmark
	client := newCoinGeckoClient(cfg)

	// Aggregation layer, optionally wrapped by the Redis cache
	aggregator := metrics.NewAggregator(stores.observations, metrics.AggregatorOptions{
		Benchmark: client,
	})

	var queries metrics.Queries = aggregator
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(aggregator, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
			Logger:   log.New(os.Stdout, "[cache] ", log.LstdFlags),
		})
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		queries = redisCache
	}

	// HTTP API
	httpAPI := api.NewServer(api.Options{
		Queries:    queries,
		Port:       cfg.Port,
		CORSOrigin: cfg.CORSAllowOrigin,
		Pingers:    stores.pingers,
		Logger:     log.New(os.Stdout, "[api] ", log.LstdFlags),
	})

	// Create server
	server := &Server{
		cfg:    cfg,
		stores: stores,
		discoverer: ingestion.NewDiscoverer(ingestion.DiscovererOptions{
			Source:   client,
			Coins:    stores.coins,
			MaxPages: cfg.DiscoveryMaxPages,
			Logger:   log.New(os.Stdout, "[discovery] ", log.LstdFlags),
		}),
		updater: ingestion.NewUpdater(ingestion.UpdaterOptions{
			Source:       client,
			Coins:        stores.coins,
			Observations: stores.observations,
			BackfillDays: cfg.BackfillDays,
			Logger:       log.New(os.Stdout, "[update] ", log.LstdFlags),
		}),
		httpAPI: httpAPI,
		logger:  logger,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

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

	// Run the unified server
	err = server.Run(ctx, *ingest)

	// Drain in-flight API requests before reporting completion
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if herr := httpAPI.Shutdown(shutdownCtx); herr != nil {
		logger.Printf("HTTP shutdown error: %v", herr)
	}
	shutdownCancel()

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// newCoinGeckoClient builds the shared CoinGecko client from config.
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

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, cfg *config.Config) (*allStores, func(), error) {
	if cfg.UseMemory {
		stores := &allStores{
			coins:        memory.NewCoinStore(),
			observations: memory.NewObservationStore(),
			pingers:      map[string]api.Pinger{},
		}
		return stores, func() {}, nil
	}

	// PostgreSQL (coin registry)
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse (observations)
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		coins:        pgstore.NewCoinStore(pool),
		observations: chstore.NewObservationStore(conn),
		pingers: map[string]api.Pinger{
			"postgres":   pool,
			"clickhouse": conn,
		},
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the unified server with all components.
func (s *Server) Run(ctx context.Context, ingest bool) error {
	s.logger.Println("Starting unified server...")

	// Create error channel for goroutines
	errCh := make(chan error, 3)

	// Start the HTTP API in background
	go func() {
		err := s.httpAPI.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http api: %w", err)
		}
	}()

	if ingest {
		// Start discovery scheduler in background
		go func() {
			err := s.runDiscoveryScheduler(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("discovery scheduler: %w", err)
			}
		}()

		// Start update scheduler in background
		go func() {
			err := s.runUpdateScheduler(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("update scheduler: %w", err)
			}
		}()
	} else {
		s.logger.Println("Ingestion disabled, serving queries only")
	}

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runDiscoveryScheduler runs coin discovery on schedule.
func (s *Server) runDiscoveryScheduler(ctx context.Context) error {
	s.logger.Printf("Starting discovery scheduler (interval: %v)...", s.cfg.DiscoveryInterval)

	// Run immediately on start
	s.runDiscovery(ctx)

	ticker := time.NewTicker(s.cfg.DiscoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runDiscovery(ctx)
		}
	}
}

// runUpdateScheduler runs price updates on schedule.
func (s *Server) runUpdateScheduler(ctx context.Context) error {
	s.logger.Printf("Starting update scheduler (interval: %v)...", s.cfg.UpdateInterval)

	// Let the first discovery land before the first update
	time.Sleep(30 * time.Second)

	s.runUpdate(ctx)

	ticker := time.NewTicker(s.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runUpdate(ctx)
		}
	}
}

// runDiscovery executes one discovery pass.
func (s *Server) runDiscovery(ctx context.Context) {
	s.mu.Lock()
	if s.discoveryRunning {
		s.mu.Unlock()
		s.logger.Println("Discovery already running, skipping...")
		return
	}
	s.discoveryRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.discoveryRunning = false
		s.mu.Unlock()
	}()

	result, err := s.discoverer.Run(ctx)
	if err != nil {
		s.logger.Printf("Discovery error: %v", err)
		return
	}
	if result.Added > 0 {
		s.logger.Printf("Discovery added %d new coins", result.Added)
	}
	s.httpAPI.MarkDiscoveryRun()
}

// runUpdate executes one price update pass.
func (s *Server) runUpdate(ctx context.Context) {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		s.logger.Println("Update already running, skipping...")
		return
	}
	s.updateRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.updateRunning = false
		s.mu.Unlock()
	}()

	result, err := s.updater.Run(ctx)
	if err != nil {
		s.logger.Printf("Update error: %v", err)
		return
	}
	if result.Failed > 0 {
		s.logger.Printf("Update finished with %d failed coins", result.Failed)
	}
	s.httpAPI.MarkUpdateRun()
}

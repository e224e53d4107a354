// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API
	Port            int
	CORSAllowOrigin string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	// Cache. An empty RedisAddr disables caching entirely.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// CoinGecko
	CoinGeckoAPIKey  string
	CoinGeckoBaseURL string
	CoinGeckoPacing  time.Duration

	// Ingestion
	UpdateInterval    time.Duration
	DiscoveryInterval time.Duration
	BackfillDays      int
	DiscoveryMaxPages int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// HTTP API
		Port:            envInt("PORT", 8080),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Storage
		PostgresDSN:   envStr("POSTGRES_DSN", ""),
		ClickhouseDSN: envStr("CLICKHOUSE_DSN", ""),
		UseMemory:     envBool("USE_MEMORY", false),

		// Cache
		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		CacheTTL:      envDuration("CACHE_TTL", time.Hour),

		// CoinGecko
		CoinGeckoAPIKey:  envStr("COINGECKO_API_KEY", ""),
		CoinGeckoBaseURL: envStr("COINGECKO_BASE_URL", ""),
		CoinGeckoPacing:  envDuration("COINGECKO_PACING", 2*time.Second),

		// Ingestion
		UpdateInterval:    envDuration("UPDATE_INTERVAL", time.Hour),
		DiscoveryInterval: envDuration("DISCOVERY_INTERVAL", 24*time.Hour),
		BackfillDays:      envInt("BACKFILL_DAYS", 30),
		DiscoveryMaxPages: envInt("DISCOVERY_MAX_PAGES", 10),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, "POSTGRES_DSN is required unless USE_MEMORY=true")
	}
	if !c.UseMemory && c.ClickhouseDSN == "" {
		errs = append(errs, "CLICKHOUSE_DSN is required unless USE_MEMORY=true")
	}
	if c.BackfillDays < 1 {
		errs = append(errs, "BACKFILL_DAYS must be at least 1")
	}
	if c.UpdateInterval <= 0 {
		errs = append(errs, "UPDATE_INTERVAL must be positive")
	}
	if c.DiscoveryInterval <= 0 {
		errs = append(errs, "DISCOVERY_INTERVAL must be positive")
	}
	if c.CoinGeckoAPIKey == "" {
		fmt.Println("[WARN] COINGECKO_API_KEY not set — using the public tier rate limits")
	}
	if c.RedisAddr == "" {
		fmt.Println("[WARN] REDIS_ADDR not set — query results will not be cached")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Memecoin Radar Configuration ===")
	if c.UseMemory {
		fmt.Println("Storage: in-memory (data is lost on restart)")
	} else {
		fmt.Println("Storage: PostgreSQL + ClickHouse")
	}
	fmt.Printf("HTTP port: %d\n", c.Port)
	fmt.Printf("Cache: %s\n", boolLabel(c.RedisAddr != "", "redis at "+c.RedisAddr, "disabled"))
	fmt.Printf("CoinGecko key: %s\n", boolLabel(c.CoinGeckoAPIKey != "", "configured", "not set (public tier)"))
	fmt.Printf("Update interval: %v\n", c.UpdateInterval)
	fmt.Printf("Discovery interval: %v\n", c.DiscoveryInterval)
	fmt.Printf("Backfill window: %d days\n", c.BackfillDays)
	fmt.Println("====================================")
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

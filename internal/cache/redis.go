package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/metrics"
	"memecoin-radar/internal/observability"
)

// DefaultTTL is how long a cached view stays valid. The underlying data
// changes at most hourly, so an hour of staleness is acceptable.
const DefaultTTL = time.Hour

const keyPrefix = "view:"

// RedisCache decorates a Queries implementation with a read-through
// cache. Only successful results are cached; ErrNoData and backend
// failures pass through, and an unreachable Redis degrades to calling
// the inner implementation directly.
type RedisCache struct {
	inner  metrics.Queries
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

var _ metrics.Queries = (*RedisCache)(nil)

// Options contains configuration for creating a RedisCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Logger   *log.Logger
}

// NewRedisCache connects to Redis and wraps inner with the cache. The
// connection is verified before the cache is returned.
func NewRedisCache(inner metrics.Queries, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &RedisCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// TopCoins serves the top-coins view through the cache.
func (c *RedisCache) TopCoins(ctx context.Context) (*domain.TopCoinsReport, error) {
	return cached(ctx, c, "top_coins", keyPrefix+"top_coins", c.inner.TopCoins)
}

// TopMovers serves the movers view through the cache. The limit is
// normalized before keying so the default and its explicit value share
// one entry.
func (c *RedisCache) TopMovers(ctx context.Context, direction domain.Direction, n int) (*domain.TopMoversReport, error) {
	if n <= 0 {
		n = metrics.DefaultMoversLimit
	}
	key := fmt.Sprintf("%stop_movers:%s:%d", keyPrefix, direction, n)
	return cached(ctx, c, "top_movers", key, func(ctx context.Context) (*domain.TopMoversReport, error) {
		return c.inner.TopMovers(ctx, direction, n)
	})
}

// TradedVolume serves the volume series through the cache, keyed by the
// requested range.
func (c *RedisCache) TradedVolume(ctx context.Context, start, end time.Time) (*domain.TradedVolumeReport, error) {
	key := fmt.Sprintf("%straded_volume:%s:%s", keyPrefix, timeKey(start), timeKey(end))
	return cached(ctx, c, "traded_volume", key, func(ctx context.Context) (*domain.TradedVolumeReport, error) {
		return c.inner.TradedVolume(ctx, start, end)
	})
}

// MarketSentiment serves the sentiment indicator through the cache.
func (c *RedisCache) MarketSentiment(ctx context.Context) (*domain.SentimentReport, error) {
	return cached(ctx, c, "market_sentiment", keyPrefix+"market_sentiment", c.inner.MarketSentiment)
}

// VolumeDominance serves the dominance indicator through the cache.
func (c *RedisCache) VolumeDominance(ctx context.Context) (*domain.DominanceReport, error) {
	return cached(ctx, c, "volume_dominance", keyPrefix+"volume_dominance", c.inner.VolumeDominance)
}

// cached reads one view through the cache: a decodable entry is a hit,
// anything else falls through to load, and only a successful load is
// written back.
func cached[T any](ctx context.Context, c *RedisCache, view, key string, load func(context.Context) (*T, error)) (*T, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var hit T
		if err := json.Unmarshal(data, &hit); err == nil {
			observability.RecordCacheHit(view)
			return &hit, nil
		}
		// Undecodable entry: drop it and refetch.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Printf("Redis get %s: %v", key, err)
	}

	observability.RecordCacheMiss(view)

	result, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Printf("Redis set %s: %v", key, err)
		}
	}

	return result, nil
}

func timeKey(t time.Time) string {
	if t.IsZero() {
		return "default"
	}
	return t.UTC().Format("2006-01-02T15:04:05")
}

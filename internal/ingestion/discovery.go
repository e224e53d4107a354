package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"memecoin-radar/internal/coingecko"
	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/observability"
	"memecoin-radar/internal/storage"
)

// DefaultMaxPages bounds one discovery run. The meme-token category is a
// few hundred coins, two pages at the default page size.
const DefaultMaxPages = 10

// Discoverer pages through the meme-token listing and keeps the coin
// registry current.
type Discoverer struct {
	source MarketSource
	coins  storage.CoinStore

	maxPages int
	logger   *log.Logger
}

// DiscovererOptions contains configuration for creating a Discoverer.
type DiscovererOptions struct {
	Source   MarketSource
	Coins    storage.CoinStore
	MaxPages int
	Logger   *log.Logger
}

// NewDiscoverer creates a new coin discoverer.
func NewDiscoverer(opts DiscovererOptions) *Discoverer {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Discoverer{
		source:   opts.Source,
		coins:    opts.Coins,
		maxPages: maxPages,
		logger:   logger,
	}
}

// DiscoveryResult contains statistics from one discovery run.
type DiscoveryResult struct {
	Pages    int
	Seen     int
	Added    int
	Errors   int
	Duration time.Duration
}

// Run pages through the listing until an empty page or the page bound,
// upserting every coin. Refreshed coins keep their original added_at;
// per-coin upsert failures are counted and do not abort the run.
func (d *Discoverer) Run(ctx context.Context) (*DiscoveryResult, error) {
	start := time.Now()
	result := &DiscoveryResult{}

	d.logger.Println("Starting coin discovery")

	for page := 1; page <= d.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		coins, err := d.source.MemeMarkets(ctx, page)
		if err != nil {
			return result, fmt.Errorf("fetch markets page %d: %w", page, err)
		}
		if len(coins) == 0 {
			break
		}

		result.Pages++
		observability.RecordDiscoveryPage()

		for _, mc := range coins {
			result.Seen++

			isNew, err := d.registerCoin(ctx, mc)
			if err != nil {
				d.logger.Printf("Error registering coin %s: %v", mc.ID, err)
				observability.RecordIngestionError("discovery")
				result.Errors++
				continue
			}
			if isNew {
				d.logger.Printf("New meme coin found: %s (%s)", mc.Name, mc.Symbol)
				observability.RecordCoinDiscovered()
				result.Added++
			}
		}
	}

	result.Duration = time.Since(start)
	d.logger.Printf("Discovery complete: %d pages, %d seen, %d added, %d errors in %v",
		result.Pages, result.Seen, result.Added, result.Errors, result.Duration)

	observability.MarkDiscoverySuccess(time.Now().Unix())

	return result, nil
}

func (d *Discoverer) registerCoin(ctx context.Context, mc coingecko.MarketCoin) (isNew bool, err error) {
	_, err = d.coins.GetByID(ctx, mc.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		isNew = true
	case err != nil:
		return false, fmt.Errorf("lookup: %w", err)
	}

	if err := d.coins.Upsert(ctx, marketCoinToDomain(mc)); err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return isNew, nil
}

func marketCoinToDomain(mc coingecko.MarketCoin) *domain.Coin {
	coin := &domain.Coin{
		ID:        mc.ID,
		Symbol:    mc.Symbol,
		Name:      mc.Name,
		MaxSupply: mc.MaxSupply,
	}
	if mc.Image != "" {
		image := mc.Image
		coin.Image = &image
	}
	return coin
}

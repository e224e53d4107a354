// Package main renders the dashboard views into a Markdown report plus
// CSV exports, for sharing snapshots without running the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"memecoin-radar/internal/coingecko"
	"memecoin-radar/internal/config"
	"memecoin-radar/internal/metrics"
	"memecoin-radar/internal/report"
	chstore "memecoin-radar/internal/storage/clickhouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	apiKey := flag.String("coingecko-api-key", cfg.CoinGeckoAPIKey, "CoinGecko demo API key (for the Bitcoin benchmark)")
	moversLimit := flag.Int("movers-limit", 0, "Gainers and losers to list (0 uses the default)")
	flag.Parse()

	ctx := context.Background()

	// Validate flags. The report reads only the observation store; the
	// Postgres coin registry feeds ingestion, not the views.
	if *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn is required")
		os.Exit(1)
	}
	cfg.CoinGeckoAPIKey = *apiKey

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Bitcoin volume benchmark for the dominance view
	clientOpts := []coingecko.ClientOption{
		coingecko.WithPacing(cfg.CoinGeckoPacing),
	}
	if cfg.CoinGeckoAPIKey != "" {
		clientOpts = append(clientOpts, coingecko.WithAPIKey(cfg.CoinGeckoAPIKey))
	}
	if cfg.CoinGeckoBaseURL != "" {
		clientOpts = append(clientOpts, coingecko.WithBaseURL(cfg.CoinGeckoBaseURL))
	}
	client := coingecko.NewClient(clientOpts...)

	aggregator := metrics.NewAggregator(chstore.NewObservationStore(conn), metrics.AggregatorOptions{
		Benchmark: client,
	})

	generator := report.NewGenerator(aggregator)
	if *moversLimit > 0 {
		generator = generator.WithMoversLimit(*moversLimit)
	}

	r, err := generator.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	// Ensure output directory exists
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	written := []string{}
	write := func(name, content string) {
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		written = append(written, path)
	}

	write("REPORT.md", report.RenderMarkdown(r))
	if r.TopCoins != nil {
		write("top_coins.csv", report.RenderTopCoinsCSV(r.TopCoins.TopCoins))
	}
	if r.Gainers != nil {
		write("top_gainers.csv", report.RenderMoversCSV(r.Gainers.TopMovers))
	}
	if r.Losers != nil {
		write("top_losers.csv", report.RenderMoversCSV(r.Losers.TopMovers))
	}
	if r.Volume != nil {
		write("traded_volume.csv", report.RenderVolumeCSV(r.Volume.VolumeOverTime))
	}

	fmt.Println("Market report generated successfully:")
	for _, f := range written {
		fmt.Printf("  - %s\n", f)
	}
	if len(r.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}

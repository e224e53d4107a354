package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"memecoin-radar/internal/httputil"
	"memecoin-radar/internal/metrics"
	"memecoin-radar/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultTimeout = 30 * time.Second
	DefaultPerPage = 250

	// The public tier allows roughly 30 calls per minute.
	DefaultPacing = 2 * time.Second
)

const (
	// MemeCategory is the CoinGecko category id for meme tokens.
	MemeCategory = "meme-token"

	// BitcoinID is the CoinGecko coin id used as the dominance benchmark.
	BitcoinID = "bitcoin"

	vsCurrency   = "usd"
	apiKeyHeader = "x-cg-demo-api-key"
)

// Client calls the CoinGecko REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      httputil.RetryConfig
	perPage    int

	// Pacing serializes calls across goroutines: the rate limit applies
	// to the key, not to the caller.
	pacing   time.Duration
	paceMu   sync.Mutex
	lastCall time.Time
}

// Compile-time check that the client can serve as the dominance benchmark.
var _ metrics.BenchmarkSource = (*Client)(nil)

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithAPIKey sets the demo API key sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry sets the retry policy for transport errors, 5xx and 429.
func WithRetry(cfg httputil.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithPacing sets the minimum interval between calls. Zero disables pacing.
func WithPacing(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pacing = d
	}
}

// WithPerPage sets the page size for market listings.
func WithPerPage(n int) ClientOption {
	return func(c *Client) {
		c.perPage = n
	}
}

// NewClient creates a CoinGecko API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retry:      httputil.DefaultRetry,
		perPage:    DefaultPerPage,
		pacing:     DefaultPacing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MemeMarkets returns one page of the meme-token category ordered by
// market cap descending. An empty page means the listing is exhausted.
func (c *Client) MemeMarkets(ctx context.Context, page int) ([]MarketCoin, error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("category", MemeCategory)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")

	var coins []MarketCoin
	if err := c.get(ctx, "markets", "/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// MarketChartRange returns the price, market-cap and volume series for one
// coin between start and end. The API samples daily for ranges over 90 days
// and hourly below that.
func (c *Client) MarketChartRange(ctx context.Context, coinID string, start, end time.Time) (*MarketChart, error) {
	if coinID == "" {
		return nil, fmt.Errorf("coingecko: empty coin id")
	}

	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("from", strconv.FormatInt(start.Unix(), 10))
	q.Set("to", strconv.FormatInt(end.Unix(), 10))

	var raw chartResponse
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart/range"
	if err := c.get(ctx, "market_chart_range", path, q, &raw); err != nil {
		return nil, err
	}

	return &MarketChart{
		Prices:       chartPoints(raw.Prices),
		MarketCaps:   chartPoints(raw.MarketCaps),
		TotalVolumes: chartPoints(raw.TotalVolumes),
	}, nil
}

// BitcoinVolumeRange sums Bitcoin traded volume between start and end.
// It backs the volume-dominance benchmark.
func (c *Client) BitcoinVolumeRange(ctx context.Context, start, end time.Time) (float64, error) {
	chart, err := c.MarketChartRange(ctx, BitcoinID, start, end)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, p := range chart.TotalVolumes {
		total += p.Value
	}
	return total, nil
}

// get performs one paced GET against the API and decodes the JSON body.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out interface{}) (err error) {
	if err := c.pace(ctx); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		observability.RecordCoinGeckoCall(endpoint, time.Since(start).Seconds(), err)
	}()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("coingecko %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coingecko %s: unexpected status %d: %s",
			endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coingecko %s: decode response: %w", endpoint, err)
	}
	return nil
}

// pace blocks until the minimum interval since the previous call has
// passed. Concurrent callers queue on the mutex.
func (c *Client) pace(ctx context.Context) error {
	if c.pacing <= 0 {
		return nil
	}

	c.paceMu.Lock()
	defer c.paceMu.Unlock()

	wait := c.pacing - time.Since(c.lastCall)
	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	c.lastCall = time.Now()
	return nil
}

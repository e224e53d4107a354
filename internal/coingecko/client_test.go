package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"memecoin-radar/internal/httputil"
)

func testClient(baseURL string, opts ...ClientOption) *Client {
	all := append([]ClientOption{
		WithBaseURL(baseURL),
		WithPacing(0),
		WithRetry(httputil.RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}),
	}, opts...)
	return NewClient(all...)
}

func TestClient_MemeMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("expected path /coins/markets, got %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("category") != "meme-token" {
			t.Errorf("expected category meme-token, got %q", q.Get("category"))
		}
		if q.Get("vs_currency") != "usd" {
			t.Errorf("expected vs_currency usd, got %q", q.Get("vs_currency"))
		}
		if q.Get("page") != "3" {
			t.Errorf("expected page 3, got %q", q.Get("page"))
		}
		if q.Get("per_page") != "100" {
			t.Errorf("expected per_page 100, got %q", q.Get("per_page"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"dogecoin","symbol":"doge","name":"Dogecoin","image":"https://img/doge.png",
			 "current_price":0.12,"market_cap":17000000000,"total_volume":900000000,"max_supply":null},
			{"id":"shiba-inu","symbol":"shib","name":"Shiba Inu","image":"https://img/shib.png",
			 "current_price":0.00001,"market_cap":6000000000,"total_volume":150000000,"max_supply":589000000000000}
		]`))
	}))
	defer server.Close()

	client := testClient(server.URL, WithPerPage(100))

	coins, err := client.MemeMarkets(context.Background(), 3)
	if err != nil {
		t.Fatalf("MemeMarkets: %v", err)
	}

	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}

	if coins[0].ID != "dogecoin" {
		t.Errorf("expected id dogecoin, got %s", coins[0].ID)
	}
	if coins[0].MarketCap != 17000000000 {
		t.Errorf("expected market cap 17000000000, got %f", coins[0].MarketCap)
	}
	if coins[0].MaxSupply != nil {
		t.Errorf("expected nil max supply for dogecoin, got %f", *coins[0].MaxSupply)
	}

	if coins[1].MaxSupply == nil {
		t.Fatal("expected max supply for shiba-inu, got nil")
	}
	if *coins[1].MaxSupply != 589000000000000 {
		t.Errorf("expected max supply 589000000000000, got %f", *coins[1].MaxSupply)
	}
}

func TestClient_MemeMarkets_SendsAPIKey(t *testing.T) {
	var gotKey atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("x-cg-demo-api-key"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(server.URL, WithAPIKey("test-key-123"))

	if _, err := client.MemeMarkets(context.Background(), 1); err != nil {
		t.Fatalf("MemeMarkets: %v", err)
	}

	if got := gotKey.Load(); got != "test-key-123" {
		t.Errorf("expected api key header test-key-123, got %v", got)
	}
}

func TestClient_MarketChartRange(t *testing.T) {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/dogecoin/market_chart/range" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("from") != strconv.FormatInt(start.Unix(), 10) {
			t.Errorf("expected from %d, got %q", start.Unix(), q.Get("from"))
		}
		if q.Get("to") != strconv.FormatInt(end.Unix(), 10) {
			t.Errorf("expected to %d, got %q", end.Unix(), q.Get("to"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"prices":[[1754006400000,0.10],[1754092800000,0.12]],
			"market_caps":[[1754006400000,15000000000],[1754092800000,17000000000]],
			"total_volumes":[[1754006400000,800000000],[1754092800000,900000000]]
		}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	chart, err := client.MarketChartRange(context.Background(), "dogecoin", start, end)
	if err != nil {
		t.Fatalf("MarketChartRange: %v", err)
	}

	if len(chart.Prices) != 2 {
		t.Fatalf("expected 2 price points, got %d", len(chart.Prices))
	}
	if chart.Prices[0].Value != 0.10 {
		t.Errorf("expected first price 0.10, got %f", chart.Prices[0].Value)
	}

	// 1754006400000 ms is 2025-08-01T00:00:00Z.
	wantTime := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	if !chart.Prices[0].Time.Equal(wantTime) {
		t.Errorf("expected time %v, got %v", wantTime, chart.Prices[0].Time)
	}
	if chart.Prices[0].Time.Location() != time.UTC {
		t.Errorf("expected UTC time, got %v", chart.Prices[0].Time.Location())
	}

	if len(chart.MarketCaps) != 2 || len(chart.TotalVolumes) != 2 {
		t.Errorf("expected 2 points per series, got %d caps and %d volumes",
			len(chart.MarketCaps), len(chart.TotalVolumes))
	}
}

func TestClient_MarketChartRange_EmptyCoinID(t *testing.T) {
	client := testClient("http://unused")

	if _, err := client.MarketChartRange(context.Background(), "", time.Now(), time.Now()); err == nil {
		t.Fatal("expected error for empty coin id, got nil")
	}
}

func TestClient_MarketChartRange_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"prices":[[1754006400000,0.10]],"market_caps":[],"total_volumes":[]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	chart, err := client.MarketChartRange(context.Background(), "dogecoin",
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("MarketChartRange after rate limit: %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if len(chart.Prices) != 1 {
		t.Errorf("expected 1 price point, got %d", len(chart.Prices))
	}
}

func TestClient_MarketChartRange_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"coin not found"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.MarketChartRange(context.Background(), "no-such-coin",
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for 404, got nil")
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 call for a 404, got %d", calls.Load())
	}
}

func TestClient_BitcoinVolumeRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart/range" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"prices":[],
			"market_caps":[],
			"total_volumes":[[1754006400000,100.5],[1754092800000,200.0],[1754179200000,50.0]]
		}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	total, err := client.BitcoinVolumeRange(context.Background(),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BitcoinVolumeRange: %v", err)
	}

	if total != 350.5 {
		t.Errorf("expected total volume 350.5, got %f", total)
	}
}

func TestClient_PacingDelaysSecondCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPacing(100*time.Millisecond))

	ctx := context.Background()
	if _, err := client.MemeMarkets(ctx, 1); err != nil {
		t.Fatalf("first call: %v", err)
	}

	begin := time.Now()
	if _, err := client.MemeMarkets(ctx, 2); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if elapsed := time.Since(begin); elapsed < 80*time.Millisecond {
		t.Errorf("expected second call paced by ~100ms, took %s", elapsed)
	}
}

func TestClient_PacingRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithPacing(time.Hour))

	if _, err := client.MemeMarkets(context.Background(), 1); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.MemeMarkets(ctx, 2)
	if err == nil {
		t.Fatal("expected context error while paced, got nil")
	}
}

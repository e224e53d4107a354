package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/metrics"
	"memecoin-radar/internal/observability"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the aggregated market views over HTTP.
type Server struct {
	queries    metrics.Queries
	pingers    map[string]Pinger
	httpServer *http.Server
	logger     *log.Logger

	mu            sync.Mutex
	started       time.Time
	updateRuns    int
	discoveryRuns int
	lastUpdate    time.Time
	lastDiscovery time.Time
}

// Options contains configuration for creating a Server.
type Options struct {
	Queries    metrics.Queries
	Port       int
	CORSOrigin string
	Pingers    map[string]Pinger
	Logger     *log.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		queries: opts.Queries,
		pingers: opts.Pingers,
		logger:  logger,
		started: time.Now(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /top-coins", s.handleTopCoins)
	mux.HandleFunc("GET /top-gainers", s.handleTopGainers)
	mux.HandleFunc("GET /top-losers", s.handleTopLosers)
	mux.HandleFunc("GET /traded-volume", s.handleTradedVolume)
	mux.HandleFunc("GET /market-sentiment", s.handleMarketSentiment)
	mux.HandleFunc("GET /volume-dominance", s.handleVolumeDominance)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	handler := corsMiddleware(metricsMiddleware(mux), opts.CORSOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Printf("HTTP API listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wired handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// MarkUpdateRun records a completed price update cycle for /status.
func (s *Server) MarkUpdateRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateRuns++
	s.lastUpdate = time.Now().UTC()
}

// MarkDiscoveryRun records a completed discovery cycle for /status.
func (s *Server) MarkDiscoveryRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoveryRuns++
	s.lastDiscovery = time.Now().UTC()
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.RecordHTTPRequest(r.URL.Path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse(domain.DayFormat, date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

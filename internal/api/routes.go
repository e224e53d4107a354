package api

import (
	"errors"
	"net/http"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/metrics"
)

func (s *Server) handleTopCoins(w http.ResponseWriter, r *http.Request) {
	report, err := s.queries.TopCoins(r.Context())
	if err != nil {
		s.writeQueryError(w, "top-coins", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTopGainers(w http.ResponseWriter, r *http.Request) {
	s.handleTopMovers(w, r, domain.DirectionGainers)
}

func (s *Server) handleTopLosers(w http.ResponseWriter, r *http.Request) {
	s.handleTopMovers(w, r, domain.DirectionLosers)
}

func (s *Server) handleTopMovers(w http.ResponseWriter, r *http.Request, direction domain.Direction) {
	n := parseLimit(r, metrics.DefaultMoversLimit)

	report, err := s.queries.TopMovers(r.Context(), direction, n)
	if err != nil {
		s.writeQueryError(w, "top-"+direction.String(), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTradedVolume(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var start, end time.Time
	if v := q.Get("start_date"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
			return
		}
		start, _ = time.Parse(domain.DayFormat, v)
	}
	if v := q.Get("end_date"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		end, _ = time.Parse(domain.DayFormat, v)
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		writeError(w, http.StatusBadRequest, "start_date is after end_date")
		return
	}

	report, err := s.queries.TradedVolume(r.Context(), start, end)
	if err != nil {
		s.writeQueryError(w, "traded-volume", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMarketSentiment(w http.ResponseWriter, r *http.Request) {
	report, err := s.queries.MarketSentiment(r.Context())
	if err != nil {
		s.writeQueryError(w, "market-sentiment", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleVolumeDominance(w http.ResponseWriter, r *http.Request) {
	report, err := s.queries.VolumeDominance(r.Context())
	if err != nil {
		s.writeQueryError(w, "volume-dominance", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeQueryError maps aggregation failures onto the HTTP contract: an
// empty result is 404, a benchmark outage is 502, anything else is 500.
func (s *Server) writeQueryError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, metrics.ErrNoData):
		writeError(w, http.StatusNotFound, "no data for requested range")
	case errors.Is(err, metrics.ErrBenchmarkUnavailable):
		writeError(w, http.StatusBadGateway, "benchmark volume unavailable")
	default:
		s.logger.Printf("Error serving %s: %v", operation, err)
		writeError(w, http.StatusInternalServerError, "failed to compute "+operation)
	}
}

// --- health and status ---

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string, len(s.pingers))
	status := "ok"
	for name, pinger := range s.pingers {
		if err := pinger.Ping(r.Context()); err != nil {
			services[name] = "disconnected"
			status = "degraded"
			continue
		}
		services[name] = "connected"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

type statusResponse struct {
	Status           string    `json:"status"`
	Uptime           string    `json:"uptime"`
	StartedAt        time.Time `json:"started_at"`
	UpdateRuns       int       `json:"update_runs"`
	DiscoveryRuns    int       `json:"discovery_runs"`
	LastUpdateRun    time.Time `json:"last_update_run,omitempty"`
	LastDiscoveryRun time.Time `json:"last_discovery_run,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "running",
		Uptime:           time.Since(s.started).String(),
		StartedAt:        s.started,
		UpdateRuns:       s.updateRuns,
		DiscoveryRuns:    s.discoveryRuns,
		LastUpdateRun:    s.lastUpdate,
		LastDiscoveryRun: s.lastDiscovery,
	})
}

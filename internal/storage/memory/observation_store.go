package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu      sync.RWMutex
	data    []*domain.Observation
	nextSeq uint64
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{}
}

// InsertBulk adds a batch of observations, assigning each a sequence.
// Multiple observations per (coin_id, date) are allowed; the sequence keeps
// read order deterministic.
func (s *ObservationStore) InsertBulk(_ context.Context, obs []*domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	// First pass: validate
	for _, o := range obs {
		if o == nil || o.CoinID == "" || o.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Second pass: insert copies with assigned sequences
	for _, o := range obs {
		s.nextSeq++
		obsCopy := *o
		obsCopy.Seq = s.nextSeq
		s.data = append(s.data, &obsCopy)
	}

	return nil
}

// GetAsOf retrieves all observations with date <= asOf, ordered by
// (date DESC, seq DESC). A zero asOf means no upper bound.
func (s *ObservationStore) GetAsOf(_ context.Context, asOf time.Time) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		if asOf.IsZero() || !o.Date.After(asOf) {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Seq > result[j].Seq
	})

	return result, nil
}

// GetRange retrieves observations within [start, end] (inclusive), ordered
// by (date ASC, seq ASC).
func (s *ObservationStore) GetRange(_ context.Context, start, end time.Time) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		if !o.Date.Before(start) && !o.Date.After(end) {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

// LatestDate returns the most recent observation date for a coin.
func (s *ObservationStore) LatestDate(_ context.Context, coinID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for _, o := range s.data {
		if o.CoinID != coinID {
			continue
		}
		if !found || o.Date.After(latest) {
			latest = o.Date
			found = true
		}
	}

	if !found {
		return time.Time{}, storage.ErrNotFound
	}
	return latest, nil
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

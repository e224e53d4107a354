package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/storage"
)

// CoinStore is an in-memory implementation of storage.CoinStore.
type CoinStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Coin // keyed by coin id
}

// NewCoinStore creates a new in-memory coin store.
func NewCoinStore() *CoinStore {
	return &CoinStore{
		data: make(map[string]*domain.Coin),
	}
}

// Upsert inserts a coin or refreshes its mutable fields if the id exists.
// AddedAt is set on first insert and preserved on refresh.
func (s *CoinStore) Upsert(_ context.Context, c *domain.Coin) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coinCopy := *c
	if existing, ok := s.data[c.ID]; ok {
		coinCopy.AddedAt = existing.AddedAt
	} else if coinCopy.AddedAt.IsZero() {
		coinCopy.AddedAt = time.Now().UTC()
	}
	s.data[c.ID] = &coinCopy

	return nil
}

// GetByID retrieves a coin by its id.
func (s *CoinStore) GetByID(_ context.Context, id string) (*domain.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	coinCopy := *c
	return &coinCopy, nil
}

// GetAll retrieves all tracked coins, ordered by id.
func (s *CoinStore) GetAll(_ context.Context) ([]*domain.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Coin, 0, len(s.data))
	for _, c := range s.data {
		coinCopy := *c
		result = append(result, &coinCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.CoinStore = (*CoinStore)(nil)

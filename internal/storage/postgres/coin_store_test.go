package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/storage"
)

func TestCoinStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCoinStore(pool)

	coin := &domain.Coin{
		ID:        "dogecoin",
		Symbol:    "doge",
		Name:      "Dogecoin",
		Image:     ptr("https://example.com/doge.png"),
		MaxSupply: nil,
	}
	require.NoError(t, store.Upsert(ctx, coin))

	got, err := store.GetByID(ctx, "dogecoin")
	require.NoError(t, err)
	require.Equal(t, "dogecoin", got.ID)
	require.Equal(t, "doge", got.Symbol)
	require.Equal(t, "Dogecoin", got.Name)
	require.NotNil(t, got.Image)
	require.Equal(t, "https://example.com/doge.png", *got.Image)
	require.Nil(t, got.MaxSupply)
	require.False(t, got.AddedAt.IsZero(), "added_at must be set by the database")
}

func TestCoinStore_UpsertRefreshKeepsAddedAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCoinStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.Coin{ID: "pepe", Symbol: "pepe", Name: "Pepe"}))

	first, err := store.GetByID(ctx, "pepe")
	require.NoError(t, err)

	// A later discovery run refreshes the listing fields
	require.NoError(t, store.Upsert(ctx, &domain.Coin{
		ID:        "pepe",
		Symbol:    "pepe",
		Name:      "Pepe Coin",
		MaxSupply: ptr(420690000000000.0),
	}))

	second, err := store.GetByID(ctx, "pepe")
	require.NoError(t, err)
	require.Equal(t, "Pepe Coin", second.Name)
	require.NotNil(t, second.MaxSupply)
	require.Equal(t, first.AddedAt, second.AddedAt, "refresh must not move added_at")
}

func TestCoinStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCoinStore(pool)

	_, err := store.GetByID(context.Background(), "no-such-coin")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCoinStore_UpsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCoinStore(pool)
	ctx := context.Background()

	require.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Upsert(ctx, &domain.Coin{Symbol: "x"}), storage.ErrInvalidInput)
}

func TestCoinStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCoinStore(pool)

	for _, id := range []string{"shiba-inu", "bonk", "dogecoin"} {
		require.NoError(t, store.Upsert(ctx, &domain.Coin{ID: id, Symbol: id, Name: id}))
	}

	coins, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, coins, 3)

	want := []string{"bonk", "dogecoin", "shiba-inu"}
	for i, id := range want {
		require.Equal(t, id, coins[i].ID)
	}
}

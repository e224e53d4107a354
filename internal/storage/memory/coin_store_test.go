package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"memecoin-radar/internal/domain"
	"memecoin-radar/internal/storage"
)

func TestCoinStore_UpsertAndGet(t *testing.T) {
	store := NewCoinStore()
	ctx := context.Background()

	img := "https://example.com/doge.png"
	c := &domain.Coin{
		ID:      "dogecoin",
		Symbol:  "doge",
		Name:    "Dogecoin",
		Image:   &img,
		AddedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := store.Upsert(ctx, c); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "dogecoin")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "doge" || got.Name != "Dogecoin" {
		t.Errorf("Coin mismatch: %+v", got)
	}
	if got.Image == nil || *got.Image != img {
		t.Errorf("Image mismatch: %v", got.Image)
	}
}

func TestCoinStore_UpsertRefreshKeepsAddedAt(t *testing.T) {
	store := NewCoinStore()
	ctx := context.Background()

	first := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Upsert(ctx, &domain.Coin{ID: "pepe", Symbol: "pepe", Name: "Pepe", AddedAt: first}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Discovery run a week later refreshes the entry.
	if err := store.Upsert(ctx, &domain.Coin{ID: "pepe", Symbol: "pepe", Name: "Pepe Coin", AddedAt: first.AddDate(0, 0, 7)}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "pepe")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Pepe Coin" {
		t.Errorf("Expected refreshed name, got %s", got.Name)
	}
	if !got.AddedAt.Equal(first) {
		t.Errorf("AddedAt should survive refresh: got %v, want %v", got.AddedAt, first)
	}
}

func TestCoinStore_NotFound(t *testing.T) {
	store := NewCoinStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCoinStore_InvalidInput(t *testing.T) {
	store := NewCoinStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Upsert(ctx, &domain.Coin{ID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestCoinStore_GetAllOrdered(t *testing.T) {
	store := NewCoinStore()
	ctx := context.Background()

	for _, id := range []string{"shiba-inu", "dogecoin", "pepe"} {
		if err := store.Upsert(ctx, &domain.Coin{ID: id, Symbol: id, Name: id}); err != nil {
			t.Fatalf("Upsert %s failed: %v", id, err)
		}
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 coins, got %d", len(got))
	}
	if got[0].ID != "dogecoin" || got[1].ID != "pepe" || got[2].ID != "shiba-inu" {
		t.Errorf("Expected id order, got %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

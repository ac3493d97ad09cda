package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// setupRedisStore starts an in-memory Redis and returns a store bound to
// it.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore("redis://"+mr.Addr(), "test")
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestNewRedisStore(t *testing.T) {
	t.Run("requires URL", func(t *testing.T) {
		if _, err := NewRedisStore("", "test"); err == nil {
			t.Error("Expected error for empty URL")
		}
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		if _, err := NewRedisStore("not-a-url", "test"); err == nil {
			t.Error("Expected error for malformed URL")
		}
	})

	t.Run("defaults prefix", func(t *testing.T) {
		store, err := NewRedisStore("redis://localhost:6379", "")
		if err != nil {
			t.Fatalf("NewRedisStore failed: %v", err)
		}
		defer store.Close()
		if store.prefix != "leaderboard" {
			t.Errorf("Expected default prefix leaderboard, got %s", store.prefix)
		}
	})
}

func TestRedisStore_Ping(t *testing.T) {
	store := setupRedisStore(t)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisStore_PutAndPages(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	first := []byte("<response>first</response>")
	second := []byte("<response>second</response>")

	if err := store.PutPage(ctx, PageKey{Start: 0, End: 5001}, first); err != nil {
		t.Fatalf("PutPage failed: %v", err)
	}
	if err := store.PutPage(ctx, PageKey{Start: 5002, End: 10003}, second); err != nil {
		t.Fatalf("PutPage failed: %v", err)
	}

	pages, err := store.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if string(pages[PageKey{Start: 0, End: 5001}]) != string(first) {
		t.Error("First page body not stored verbatim")
	}
	if string(pages[PageKey{Start: 5002, End: 10003}]) != string(second) {
		t.Error("Second page body not stored verbatim")
	}
}

func TestRedisStore_PutPage_Replace(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	key := PageKey{Start: 0, End: 100}
	if err := store.PutPage(ctx, key, []byte("old")); err != nil {
		t.Fatalf("PutPage failed: %v", err)
	}
	if err := store.PutPage(ctx, key, []byte("new")); err != nil {
		t.Fatalf("PutPage replace failed: %v", err)
	}

	pages, err := store.Pages(ctx)
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("Expected 1 page after replace, got %d", len(pages))
	}
	if string(pages[key]) != "new" {
		t.Errorf("Expected replaced body, got %q", pages[key])
	}
}

func TestRedisStore_Empty(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	empty, err := store.Empty(ctx)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if !empty {
		t.Error("Expected fresh store to be empty")
	}

	if err := store.PutPage(ctx, PageKey{Start: 0, End: 10}, []byte("x")); err != nil {
		t.Fatalf("PutPage failed: %v", err)
	}

	empty, err = store.Empty(ctx)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if empty {
		t.Error("Expected store with a page not to be empty")
	}
}

func TestRedisStore_CompleteMarker(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	complete, err := store.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if complete {
		t.Error("Expected fresh store not to be complete")
	}

	if err := store.MarkComplete(ctx); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}

	complete, err = store.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !complete {
		t.Error("Expected store to be complete after MarkComplete")
	}
}

func TestRedisStore_Reset(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.PutPage(ctx, PageKey{Start: 0, End: 10}, []byte("x")); err != nil {
		t.Fatalf("PutPage failed: %v", err)
	}
	if err := store.MarkComplete(ctx); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	if err := store.SaveDataset(ctx, []byte(`{"entries":[]}`)); err != nil {
		t.Fatalf("SaveDataset failed: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	empty, err := store.Empty(ctx)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if !empty {
		t.Error("Expected store to be empty after Reset")
	}

	complete, err := store.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if complete {
		t.Error("Expected completion marker cleared by Reset")
	}

	// The dataset is an independent artifact and survives a page reset.
	has, err := store.HasDataset(ctx)
	if err != nil {
		t.Fatalf("HasDataset failed: %v", err)
	}
	if !has {
		t.Error("Expected dataset to survive Reset")
	}
}

func TestRedisStore_Dataset(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	has, err := store.HasDataset(ctx)
	if err != nil {
		t.Fatalf("HasDataset failed: %v", err)
	}
	if has {
		t.Error("Expected no dataset in fresh store")
	}

	if _, err := store.LoadDataset(ctx); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Expected ErrNoDataset, got %v", err)
	}

	payload := []byte(`{"entries":[{"rank":1}]}`)
	if err := store.SaveDataset(ctx, payload); err != nil {
		t.Fatalf("SaveDataset failed: %v", err)
	}

	loaded, err := store.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if string(loaded) != string(payload) {
		t.Errorf("Expected %s, got %s", payload, loaded)
	}
}

package tiers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type fakeCacheStore struct {
	values map[string]string
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{values: map[string]string{}}
}

func (f *fakeCacheStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeCacheStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCacheStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCacheStore) CacheKey(parts ...string) string {
	return "tf:cache:" + strings.Join(parts, ":")
}

func TestHierarchyCacheRoundTrip(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewHierarchyCache(store, 30*time.Second, nil)
	ctx := context.Background()
	manufacturerID := uuid.New()

	if _, ok := cache.Get(ctx, manufacturerID); ok {
		t.Fatal("expected miss on empty cache")
	}

	dto := &HierarchyDTO{
		ManufacturerID: manufacturerID,
		Nodes:          []*TierNodeDTO{},
	}
	cache.Put(ctx, manufacturerID, dto)

	cached, ok := cache.Get(ctx, manufacturerID)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if cached.ManufacturerID != manufacturerID {
		t.Fatalf("unexpected manufacturer %s", cached.ManufacturerID)
	}

	cache.Invalidate(ctx, manufacturerID)
	if _, ok := cache.Get(ctx, manufacturerID); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestHierarchyCacheDropsMalformedEntries(t *testing.T) {
	store := newFakeCacheStore()
	cache := NewHierarchyCache(store, time.Minute, nil)
	ctx := context.Background()
	manufacturerID := uuid.New()

	key := store.CacheKey("hierarchy", manufacturerID.String(), "all")
	store.values[key] = "{not json"

	if _, ok := cache.Get(ctx, manufacturerID); ok {
		t.Fatal("expected malformed entry to read as a miss")
	}
	if _, exists := store.values[key]; exists {
		t.Fatal("expected malformed entry to be dropped")
	}
}

func TestHierarchyCacheNilStoreIsNoOp(t *testing.T) {
	cache := NewHierarchyCache(nil, time.Minute, nil)
	ctx := context.Background()
	manufacturerID := uuid.New()

	cache.Put(ctx, manufacturerID, &HierarchyDTO{ManufacturerID: manufacturerID})
	if _, ok := cache.Get(ctx, manufacturerID); ok {
		t.Fatal("expected disabled cache to always miss")
	}
	cache.Invalidate(ctx, manufacturerID)
}

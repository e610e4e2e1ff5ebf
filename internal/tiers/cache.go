package tiers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tierforge/tierforge-backend/pkg/logger"
)

const cacheSelectorAll = "all"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// HierarchyCache keeps the assembled full-manufacturer hierarchy in
// Redis. Only the unfiltered view is cached; company-scoped reads are
// cheap enough to rebuild and would otherwise need per-company
// invalidation bookkeeping.
type HierarchyCache struct {
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewHierarchyCache builds the cache; a nil store disables it.
func NewHierarchyCache(store cacheStore, ttl time.Duration, logg *logger.Logger) *HierarchyCache {
	return &HierarchyCache{store: store, ttl: ttl, logg: logg}
}

// Get returns the cached hierarchy if present.
func (c *HierarchyCache) Get(ctx context.Context, manufacturerID uuid.UUID) (*HierarchyDTO, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.key(manufacturerID))
	if err != nil {
		if !errors.Is(err, goredis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "hierarchy cache read failed")
		}
		return nil, false
	}
	var dto HierarchyDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		// Treat a malformed entry as a miss and drop it.
		_ = c.store.Del(ctx, c.key(manufacturerID))
		return nil, false
	}
	return &dto, true
}

// Put stores the hierarchy with the configured TTL. Failures are logged
// and swallowed; the cache never gates a read.
func (c *HierarchyCache) Put(ctx context.Context, manufacturerID uuid.UUID, dto *HierarchyDTO) {
	if c == nil || c.store == nil || dto == nil {
		return
	}
	raw, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(manufacturerID), string(raw), c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "hierarchy cache write failed")
	}
}

// Invalidate drops the manufacturer's cached hierarchy after a mutation.
func (c *HierarchyCache) Invalidate(ctx context.Context, manufacturerID uuid.UUID) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, c.key(manufacturerID)); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "hierarchy cache invalidation failed")
	}
}

func (c *HierarchyCache) key(manufacturerID uuid.UUID) string {
	return c.store.CacheKey("hierarchy", manufacturerID.String(), cacheSelectorAll)
}

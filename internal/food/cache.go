package food

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/coocood/freecache"
)

const (
	// DefaultCacheSize is the in-memory cache size in bytes.
	DefaultCacheSize = 32 * 1024 * 1024
	// promotedTTL applies to persistent rows that carry no expiry.
	promotedTTL = 5 * time.Minute
)

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// clockTimer adapts a Clock to freecache's second-resolution timer.
type clockTimer struct{ clock Clock }

func (t clockTimer) Now() uint32 { return uint32(t.clock.Now().Unix()) }

// Store is the optional persistent layer behind the in-memory cache.
// LoadFoodCache returns a nil value when key is absent; a nil expiresAt means
// the row never expires.
type Store interface {
	LoadFoodCache(ctx context.Context, key string) (value []byte, expiresAt *time.Time, err error)
	SaveFoodCache(ctx context.Context, key string, value []byte, expiresAt time.Time) error
}

// Cache is a two-level TTL cache for normalized lookup results: an
// in-process freecache in front of an optional Store. It is safe for
// concurrent use.
type Cache struct {
	mem    *freecache.Cache
	store  Store
	clock  Clock
	logger *slog.Logger
}

// NewCache creates a cache of sizeBytes. store and clock may be nil.
func NewCache(sizeBytes int, store Store, clock Clock, logger *slog.Logger) *Cache {
	if clock == nil {
		clock = systemClock{}
	}
	if sizeBytes <= 0 {
		sizeBytes = DefaultCacheSize
	}
	return &Cache{
		mem:    freecache.NewCacheCustomTimer(sizeBytes, clockTimer{clock}),
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Get returns the cached value for key. A persistent hit is promoted into
// memory for its remaining lifetime.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, err := c.mem.Get([]byte(key)); err == nil {
		return v, true
	} else if !errors.Is(err, freecache.ErrNotFound) {
		c.logger.Warn("memory cache get failed", "key", key, "error", err)
	}

	if c.store == nil {
		return nil, false
	}

	value, expiresAt, err := c.store.LoadFoodCache(ctx, key)
	if err != nil {
		c.logger.Warn("persistent cache get failed", "key", key, "error", err)
		return nil, false
	}
	if value == nil {
		return nil, false
	}

	now := c.clock.Now()
	ttl := promotedTTL
	if expiresAt != nil {
		if expiresAt.Before(now) {
			return nil, false
		}
		ttl = expiresAt.Sub(now)
	}
	if err := c.mem.Set([]byte(key), value, ttlSeconds(ttl)); err != nil {
		c.logger.Warn("memory cache promote failed", "key", key, "error", err)
	}
	return value, true
}

// Set stores value under key in both layers. Failures are logged; caching is
// best effort.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.mem.Set([]byte(key), value, ttlSeconds(ttl)); err != nil {
		c.logger.Warn("memory cache set failed", "key", key, "error", err)
	}
	if c.store == nil {
		return
	}
	if err := c.store.SaveFoodCache(ctx, key, value, c.clock.Now().Add(ttl)); err != nil {
		c.logger.Warn("persistent cache set failed", "key", key, "error", err)
	}
}

// ttlSeconds rounds up to whole seconds. freecache treats 0 as "never
// expires", so the minimum is 1.
func ttlSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

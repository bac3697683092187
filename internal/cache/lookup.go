// Package cache: optional Redis read-through cache for the exact-match lookups (name → address,
// address → name). Entries are keyed by a generation number; any mutation or refresh bumps the
// generation so stale entries are never read again and simply expire.
package cache

import (
	"context"
	"errors"
	"os"
	"time"

	"places-api/internal/logger"
	"places-api/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	KindName    = "name"
	KindAddress = "address"

	genKey     = "places:gen"
	DefaultTTL = time.Hour
)

// Lookup is safe to use as a nil pointer; every method then degrades to a miss or a no-op.
type Lookup struct {
	rc  *redis.Client
	ttl time.Duration
}

// New returns nil when rc is nil so callers can wire it unconditionally.
func New(rc *redis.Client, ttl time.Duration) *Lookup {
	if rc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lookup{rc: rc, ttl: ttl}
}

// TTLFromEnv: PLACES_CACHE_TTL as a Go duration, DefaultTTL otherwise.
func TTLFromEnv() time.Duration {
	if v := os.Getenv("PLACES_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTTL
}

func keyFor(gen, kind, value string) string {
	return "places:" + gen + ":" + kind + ":" + value
}

func (c *Lookup) generation(ctx context.Context) (string, error) {
	gen, err := c.rc.Get(ctx, genKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// Get reports a cached value for kind/value together with the generation it looked under. Redis
// errors count as misses and yield an empty generation.
// Constraint: callers pass gen back to Set unchanged; re-reading the generation after the store query
// would let a concurrent Invalidate be overwritten with the pre-mutation value.
func (c *Lookup) Get(ctx context.Context, kind, value string) (result, gen string, ok bool) {
	if c == nil {
		return "", "", false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		logger.L().Debug("cache_gen_error", "err", err)
		metrics.CacheMissesTotal.Inc()
		return "", "", false
	}
	s, err := c.rc.Get(ctx, keyFor(gen, kind, value)).Result()
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return "", gen, false
	}
	metrics.CacheHitsTotal.Inc()
	return s, gen, true
}

// Set stores a positive lookup result under gen, the generation Get returned before the store was
// read. An empty gen is a no-op. Misses are never cached.
func (c *Lookup) Set(ctx context.Context, gen, kind, value, result string) {
	if c == nil || gen == "" {
		return
	}
	if err := c.rc.Set(ctx, keyFor(gen, kind, value), result, c.ttl).Err(); err != nil {
		logger.L().Debug("cache_set_error", "err", err)
	}
}

// Invalidate bumps the generation, orphaning every cached entry.
func (c *Lookup) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rc.Incr(ctx, genKey).Err(); err != nil {
		logger.L().Error("cache_invalidate_error", "err", err)
		return
	}
	logger.L().Debug("cache_invalidated")
}

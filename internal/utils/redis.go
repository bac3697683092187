// Package utils: connection helpers for the database and Redis, driven by environment variables.
package utils

import (
	"net"
	"os"
	"strconv"

	"places-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis: client for addr, nil when addr is empty.
// Background: tests and tools that already know the address inject it directly instead of going
// through the environment.
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// RedisOptionsFromEnv builds client options from REDIS_HOST, REDIS_PORT, REDIS_PASS and REDIS_DB.
// The second result is false unless REDIS_ENABLED=true.
// Constraint: host defaults to 127.0.0.1 and port to 6379; an unparsable or negative REDIS_DB
// falls back to 0 rather than failing startup, since the cache is optional.
func RedisOptionsFromEnv() (*redis.Options, bool) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		return nil, false
	}
	host := envOr("REDIS_HOST", "127.0.0.1")
	port := envOr("REDIS_PORT", "6379")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	}, true
}

// OpenRedisFromEnv returns the lookup-cache client, or nil when Redis is disabled.
// Background: the server and placesctl share one cache; both open it here so that a CLI refresh
// invalidates the same keyspace the server reads.
// Constraint: no connection is made here; callers Ping if they want to fail fast.
func OpenRedisFromEnv() *redis.Client {
	opts, ok := RedisOptionsFromEnv()
	if !ok {
		return nil
	}
	logger.L().Debug("redis_env", "addr", opts.Addr, "db", opts.DB)
	return redis.NewClient(opts)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

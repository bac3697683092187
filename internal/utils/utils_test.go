package utils

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "svc")
	t.Setenv("PG_PASSWORD", "pw")
	t.Setenv("PG_DB", "poi")
	t.Setenv("PG_SSLMODE", "require")
	assert.Equal(t, "postgres://svc:pw@db.internal:6543/poi?sslmode=require", BuildPostgresDSNFromEnv())
}

func TestBuildPostgresDSNDefaults(t *testing.T) {
	for _, k := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, "postgres://postgres@localhost:5432/places?sslmode=disable", BuildPostgresDSNFromEnv())
}

func TestDriverFromEnv(t *testing.T) {
	t.Setenv("PLACES_DB_DRIVER", "")
	assert.Equal(t, "sqlite", DriverFromEnv())
	t.Setenv("PLACES_DB_DRIVER", "Postgres")
	assert.Equal(t, "postgres", DriverFromEnv())
}

func TestOpenSQLiteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "places.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	assert.FileExists(t, path)
}

func TestOpenRedisFromEnvDisabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "")
	assert.Nil(t, OpenRedisFromEnv())
	assert.Nil(t, OpenRedis("", ""))
}

func TestRedisOptionsFromEnv(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASS", "secret")
	t.Setenv("REDIS_DB", "-2")
	opts, ok := RedisOptionsFromEnv()
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Zero(t, opts.DB)

	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "3")
	opts, _ = RedisOptionsFromEnv()
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "places.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	// existing pair is left alone
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
}

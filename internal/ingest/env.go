package ingest

import (
	"net/http"
	"os"
	"time"

	"places-api/internal/geoapify"
)

const DefaultTimeout = 30 * time.Second

// SourceFromEnv: Geoapify client configured from GEOAPIFY_*.
func SourceFromEnv() Source {
	hc := &http.Client{Timeout: geoapify.TimeoutFromEnv()}
	return geoapify.NewClient(geoapify.ConfigFromEnv(), hc)
}

// FromEnv builds a Refresher over SourceFromEnv using PLACES_REFRESH_CATEGORIES.
func FromEnv(dst Sink) *Refresher {
	return NewRefresher(SourceFromEnv(), dst, os.Getenv("PLACES_REFRESH_CATEGORIES"))
}

// TimeoutFromEnv bounds the whole startup refresh (PLACES_REFRESH_TIMEOUT, default 30s).
func TimeoutFromEnv() time.Duration {
	if v := os.Getenv("PLACES_REFRESH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

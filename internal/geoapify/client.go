// Package geoapify: upstream client for the Geoapify Places API. One GET per call against a fixed
// circle; failures are logged and turned into an empty result, never returned.
package geoapify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"places-api/internal/logger"
	"places-api/internal/metrics"
	"places-api/internal/store"
)

// AllCategories is the wildcard token: no category filter.
const AllCategories = "all"

const (
	DefaultBaseURL = "https://api.geoapify.com/v2/places"
	DefaultTimeout = 10 * time.Second
)

// Config: provider endpoint and the fixed search circle (lon/lat in degrees, radius in metres).
type Config struct {
	BaseURL string
	APIKey  string
	Lon     float64
	Lat     float64
	Radius  int
	// Limit is sent as the limit parameter when positive.
	Limit int
}

// ConfigFromEnv reads GEOAPIFY_*; unparsable numbers keep their defaults (central Kyiv, 1 km).
func ConfigFromEnv() Config {
	c := Config{
		BaseURL: os.Getenv("GEOAPIFY_BASE_URL"),
		APIKey:  os.Getenv("GEOAPIFY_API_KEY"),
		Lon:     30.5234,
		Lat:     50.4501,
		Radius:  1000,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if v := os.Getenv("GEOAPIFY_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lon = f
		}
	}
	if v := os.Getenv("GEOAPIFY_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lat = f
		}
	}
	if v := os.Getenv("GEOAPIFY_RADIUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Radius = n
		}
	}
	if v := os.Getenv("GEOAPIFY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Limit = n
		}
	}
	return c
}

// TimeoutFromEnv: GEOAPIFY_TIMEOUT as a Go duration, DefaultTimeout otherwise.
func TimeoutFromEnv() time.Duration {
	if v := os.Getenv("GEOAPIFY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// placesResponse mirrors only the GeoJSON fields the mapping reads.
type placesResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties *properties `json:"properties"`
}

type properties struct {
	Name         string   `json:"name"`
	Categories   []string `json:"categories"`
	AddressLine2 string   `json:"address_line2"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient: hc may be nil, in which case a client with DefaultTimeout is used.
func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, http: hc}
}

// requestURL builds the places query for category (sent verbatim, including the wildcard).
func (c *Client) requestURL(category string) string {
	q := url.Values{}
	q.Set("categories", category)
	q.Set("filter", "circle:"+
		strconv.FormatFloat(c.cfg.Lon, 'f', -1, 64)+","+
		strconv.FormatFloat(c.cfg.Lat, 'f', -1, 64)+","+
		strconv.Itoa(c.cfg.Radius))
	if c.cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.cfg.Limit))
	}
	q.Set("apiKey", c.cfg.APIKey)
	return c.cfg.BaseURL + "?" + q.Encode()
}

// FetchPlaces returns the places found inside the configured circle for category, in the order the
// provider sent them. Transport errors, non-2xx answers and undecodable bodies all yield an empty slice.
func (c *Client) FetchPlaces(ctx context.Context, category string) []store.Place {
	out := []store.Place{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(category), nil)
	if err != nil {
		logger.L().Error("geoapify_request_error", "err", err)
		metrics.UpstreamFailTotal.WithLabelValues("request").Inc()
		return out
	}
	t0 := time.Now()
	metrics.UpstreamRequestsTotal.Inc()
	logger.L().Debug("geoapify_req", "categories", category, "radius", c.cfg.Radius)
	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Error("geoapify_http_error", "err", err)
		metrics.UpstreamFailTotal.WithLabelValues("http").Inc()
		return out
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Error("geoapify_status_error", "status", resp.StatusCode)
		metrics.UpstreamFailTotal.WithLabelValues("status").Inc()
		return out
	}
	var r placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("geoapify_decode_error", "err", err)
		metrics.UpstreamFailTotal.WithLabelValues("decode").Inc()
		return out
	}
	dur := time.Since(t0).Milliseconds()
	metrics.UpstreamDurationMs.Observe(float64(dur))
	metrics.UpstreamSuccessTotal.Inc()
	for _, f := range r.Features {
		out = append(out, toPlace(f))
	}
	logger.L().Debug("geoapify_resp", "features", len(r.Features), "duration_ms", dur)
	return out
}

func toPlace(f feature) store.Place {
	if f.Properties == nil {
		return store.Place{}
	}
	return store.Place{
		Name:     f.Properties.Name,
		Category: strings.Join(f.Properties.Categories, ", "),
		Address:  f.Properties.AddressLine2,
	}
}

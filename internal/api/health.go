package api

import (
	"context"
	"net/http"
)

// Counter is satisfied by *store.Store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler answers 200 with the row count while the store is reachable, 503 otherwise.
func HealthHandler(c Counter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := c.Count(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Places: n})
	})
}

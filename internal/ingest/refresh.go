// Package ingest: wholesale refresh of the local places table from the upstream provider. Runs once,
// synchronously, before the HTTP server starts accepting requests.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"places-api/internal/geoapify"
	"places-api/internal/logger"
	"places-api/internal/metrics"
	"places-api/internal/store"
)

// ErrAlreadyRan is returned by RunOnce after the first call.
var ErrAlreadyRan = errors.New("refresh already ran")

// ReplaceTimeout bounds the replace step. It runs detached from the caller's deadline so that a
// fetch which used up the whole budget still leaves the store emptied.
const ReplaceTimeout = 10 * time.Second

// Source: upstream candidates for a category token. Implementations swallow their own errors.
type Source interface {
	FetchPlaces(ctx context.Context, category string) []store.Place
}

// Sink: destination that replaces its whole content with the given rows.
type Sink interface {
	ReplaceAll(ctx context.Context, places []store.Place) (int, error)
}

type Refresher struct {
	src      Source
	dst      Sink
	category string
	// OnReplaced runs after a successful replace; used to drop derived caches.
	OnReplaced func(ctx context.Context)

	once sync.Once
}

// NewRefresher: an empty category means the wildcard token.
func NewRefresher(src Source, dst Sink, category string) *Refresher {
	if category == "" {
		category = geoapify.AllCategories
	}
	return &Refresher{src: src, dst: dst, category: category}
}

// Refresh: fetch, then replace everything with whatever came back, in the received order.
// Constraint: an empty fetch (upstream failure or an expired ctx included) still empties the store;
// rows added locally since the previous refresh are lost.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	l := logger.L()
	t0 := time.Now()
	l.Info("refresh_start", "categories", r.category)
	places := r.src.FetchPlaces(ctx, r.category)
	if len(places) == 0 {
		l.Warn("refresh_upstream_empty", "categories", r.category)
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ReplaceTimeout)
	defer cancel()
	n, err := r.dst.ReplaceAll(rctx, places)
	if err != nil {
		l.Error("refresh_replace_error", "err", err)
		return 0, err
	}
	if r.OnReplaced != nil {
		r.OnReplaced(rctx)
	}
	dur := time.Since(t0).Milliseconds()
	metrics.RefreshRows.Set(float64(n))
	metrics.RefreshDurationMs.Observe(float64(dur))
	metrics.RefreshLastSuccess.SetToCurrentTime()
	l.Info("refresh_done", "rows", n, "duration_ms", dur)
	return n, nil
}

// RunOnce calls Refresh on the first invocation only; later calls return ErrAlreadyRan.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	ran := false
	var n int
	var err error
	r.once.Do(func() {
		ran = true
		n, err = r.Refresh(ctx)
	})
	if !ran {
		return 0, ErrAlreadyRan
	}
	return n, err
}

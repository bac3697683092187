// Entry point: reads configuration, opens the store, runs the one-off startup refresh, then serves
// the places API. Routes live in internal/api.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"places-api/internal/api"
	"places-api/internal/cache"
	"places-api/internal/ingest"
	"places-api/internal/logger"
	"places-api/internal/metrics"
	"places-api/internal/middleware"
	"places-api/internal/store"
	"places-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/places"
	}
	l.Debug("config_api_base", "base", apiBase)

	st, err := store.OpenFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	l.Info("db_open_ok", "dialect", st.Dialect())

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
	} else {
		l.Info("redis_ping_ok")
	}
	lc := cache.New(rc, cache.TTLFromEnv())

	// Startup refresh: blocks readiness; an upstream failure still leaves an (empty) serving store.
	if os.Getenv("PLACES_REFRESH_ENABLED") != "false" {
		r := ingest.FromEnv(st)
		r.OnReplaced = lc.Invalidate
		ctx, cancel := context.WithTimeout(context.Background(), ingest.TimeoutFromEnv())
		if _, err := r.RunOnce(ctx); err != nil {
			l.Error("startup_refresh_error", "err", err)
		}
		cancel()
	} else {
		l.Info("startup_refresh_skipped")
	}
	if n, err := st.Count(context.Background()); err == nil {
		l.Info("places_ready", "rows", n)
	}

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, api.BuildRoutes(st, lc)))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.Handle("/healthz", api.HealthHandler(st))

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "places-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}

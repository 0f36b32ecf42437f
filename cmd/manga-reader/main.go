package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savelevaik/go-manga-reader/internal/auth"
	"github.com/savelevaik/go-manga-reader/internal/cache"
	"github.com/savelevaik/go-manga-reader/internal/config"
	apphttp "github.com/savelevaik/go-manga-reader/internal/http"
	"github.com/savelevaik/go-manga-reader/internal/http/middleware"
	"github.com/savelevaik/go-manga-reader/internal/ratelimit"
	"github.com/savelevaik/go-manga-reader/internal/service"
	"github.com/savelevaik/go-manga-reader/internal/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting manga-reader", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Postgres.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	st, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer st.Close()
	log.Info("storage_initialized")

	svc := service.New(st, cfg.Auth)

	// Кэш каталога опционален: без REDIS_URL сервис работает напрямую с БД.
	if cfg.Redis.RedisURL != "" {
		ccache, err := cache.NewRedisCache(cfg.Redis.RedisURL, "catalog:", cfg.Redis.TTL)
		if err != nil {
			log.Error("cache_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := ccache.Close(); cerr != nil {
				log.Warn("cache_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		svc.SetCatalogCache(ccache)
		log.Info("catalog_cache_enabled")
	}

	// Лимитер записывающих операций + фоновая уборка устаревших окон.
	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	limiter.StartJanitor(rootCtx, cfg.RateLimit.JanitorPeriod)

	// Метрики.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	apiHandler := apphttp.NewRouter(svc,
		auth.New(cfg.Auth.SessionSecret),
		limiter,
		apphttp.Options{
			Logger:       log,
			Timeout:      cfg.Timeouts.Request,
			CookieName:   cfg.Auth.CookieName,
			SecureCookie: cfg.Env != envLocal,
			Metrics:      httpMetrics,
		})

	var ready int32 // 0 — not ready; 1 — ready

	// Служебный сервер: liveness/readiness и метрики, отдельный порт.
	opsMux := http.NewServeMux()
	opsMux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	opsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	opsSrv := &http.Server{
		Addr:              cfg.Ops.Addr(),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 2)

	startServer := func(srv *http.Server, name string) {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			log.Error("http_listen_failed",
				slog.String("server", name),
				slog.String("addr", srv.Addr),
				slog.String("err", err.Error()),
			)
			os.Exit(1)
		}

		log.Info("http_listen_start", slog.String("server", name), slog.String("addr", srv.Addr))

		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErrCh <- err
			}
		}()
	}

	startServer(httpSrv, "public")
	startServer(opsSrv, "ops")

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		log.Error("http_serve_failed", slog.String("err", err.Error()))
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("ops_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dghttp "github.com/docegestao/docegestao/internal/adapter/http"
	"github.com/docegestao/docegestao/internal/adapter/memfeed"
	"github.com/docegestao/docegestao/internal/adapter/memstore"
	dgnats "github.com/docegestao/docegestao/internal/adapter/nats"
	dgotel "github.com/docegestao/docegestao/internal/adapter/otel"
	"github.com/docegestao/docegestao/internal/adapter/postgres"
	"github.com/docegestao/docegestao/internal/adapter/ristretto"
	"github.com/docegestao/docegestao/internal/adapter/ws"
	"github.com/docegestao/docegestao/internal/config"
	"github.com/docegestao/docegestao/internal/logger"
	"github.com/docegestao/docegestao/internal/middleware"
	"github.com/docegestao/docegestao/internal/port/docstore"
	"github.com/docegestao/docegestao/internal/service"
	dgsync "github.com/docegestao/docegestao/internal/sync"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := dgotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	var metrics *dgotel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = dgotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Storage + change feed ---
	var (
		backend docstore.Backend
		feed    docstore.Feed
	)
	switch cfg.Storage.Driver {
	case "memory":
		backend = memstore.New()
		feed = memfeed.New()
		slog.Info("in-memory storage selected, data will not survive a restart")
	default:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		slog.Info("postgres connected")

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")

		natsFeed, err := dgnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = natsFeed.Close() }()
		slog.Info("nats connected")

		backend = postgres.NewStore(pool)
		feed = natsFeed
	}

	l1, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// --- Sync core ---
	store := dgsync.NewStore(backend, feed, log)
	mgr := dgsync.NewManager(store, feed, log)

	// --- Services ---
	authSvc := service.NewAuthService(backend, l1, &cfg.Auth, log)
	menuSvc := service.NewMenuService(store, log)
	orderSvc := service.NewOrderService(store, log)
	quoteSvc := service.NewQuoteService(menuSvc, log)
	adminSvc := service.NewAdminService(backend, authSvc, log)

	hub := ws.NewHub(store, mgr, l1, cfg.Sync, metrics, log)
	defer hub.CloseAll()

	var throttle *middleware.Throttle
	if cfg.Auth.LoginRatePerMin > 0 {
		throttle = middleware.NewThrottle(cfg.Auth.LoginRatePerMin/60, cfg.Auth.LoginBurst)
	}

	handlers := &dghttp.Handlers{
		Auth:     authSvc,
		Menus:    menuSvc,
		Orders:   orderSvc,
		Quotes:   quoteSvc,
		Admin:    adminSvc,
		Hub:      hub,
		Metrics:  metrics,
		Throttle: throttle,
		Version:  version,
	}

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(dghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(dghttp.SecurityHeaders)
	r.Use(dghttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(dgotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(authSvc))

	dghttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	tfhttp "github.com/tokyoflo/platform/internal/adapter/http"
	tfnats "github.com/tokyoflo/platform/internal/adapter/nats"
	"github.com/tokyoflo/platform/internal/adapter/otel"
	"github.com/tokyoflo/platform/internal/adapter/postgres"
	"github.com/tokyoflo/platform/internal/adapter/ristretto"
	"github.com/tokyoflo/platform/internal/config"
	"github.com/tokyoflo/platform/internal/logger"
	"github.com/tokyoflo/platform/internal/middleware"
	"github.com/tokyoflo/platform/internal/port/messagequeue"
	"github.com/tokyoflo/platform/internal/service"
)

func main() {
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

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"base_domain", cfg.Domain.BaseDomain,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
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

	// Tenant cache
	tenantCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer tenantCache.Close()

	// NATS action event stream. The core stays up without it.
	queue, err := tfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "url", cfg.NATS.URL, "error", err)
		queue = nil
	} else {
		defer func() { _ = queue.Close() }()
	}

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	resolverSvc := service.NewResolverService(store, tenantCache, queueOrNil(queue), cfg.Domain, cfg.Cache.TenantTTL, metrics)
	authSvc := service.NewAuthService(store, &cfg.Auth, metrics)
	actionSvc := service.NewActionService(store, queueOrNil(queue), metrics)

	stopConsumer, err := actionSvc.ConsumeRecorded(ctx)
	if err != nil {
		slog.Warn("action event consumer unavailable", "error", err)
	} else {
		defer stopConsumer()
	}

	// --- HTTP ---
	handlers := tfhttp.NewHandlers(resolverSvc, authSvc, actionSvc)

	r := chi.NewRouter()

	r.Use(tfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tfhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(tfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Auth(authSvc))

	r.Get("/health", healthHandler(queue))

	tfhttp.MountRoutes(r, handlers, metrics)

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

// queueOrNil avoids handing services a typed-nil interface value.
func queueOrNil(q *tfnats.Queue) messagequeue.Queue {
	if q == nil {
		return nil
	}
	return q
}

// healthHandler reports process health plus event stream connectivity.
func healthHandler(queue *tfnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status string `json:"status"`
		NATS   bool   `json:"nats"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{Status: "ok"}
		if queue != nil {
			status.NATS = queue.IsConnected()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

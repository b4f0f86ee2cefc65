package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/rivalry/internal/adapters/http/api"
	"github.com/okian/rivalry/internal/adapters/http/swagger"
	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/adapters/repository/postgres"
	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/config"
	"github.com/okian/rivalry/internal/domain/dedupe"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Runtime stats come from our own collector.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go metrics.Default().RunSystemCollector(ctx)

	srv := newHTTPServer(cfg.Addr, newHandler(ctx, cfg, svc))
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore returns the configured repository backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		st, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil
	default:
		return repository.NewMemoryStore(ctx), nil
	}
}

// buildService wires the service from configuration without starting it.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	geo, err := tier.New(cfg.RosterSize, cfg.TierCount)
	if err != nil {
		return nil, fmt.Errorf("invalid tier geometry: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithGeometry(geo),
		service.WithStepsPerPoint(cfg.StepsPerPoint),
		service.WithPlacementBias(cfg.PlacementBias),
		service.WithLookback(cfg.LookbackWindow, cfg.LookbackStep),
		service.WithProvisionalThreshold(cfg.ProvisionalThreshold),
		service.WithMaxResult(cfg.MaxResult),
		service.WithHistoryPageSize(cfg.HistoryPageSize),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithAuditInterval(cfg.AuditInterval()),
	), nil
}

// newHandler registers the docs and API routes.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	deduper := dedupe.NewInMemoryDeduper(
		dedupe.WithTTL(cfg.IdempotencyTTL()),
		dedupe.WithMaxSize(cfg.IdempotencyMaxKeys),
	)
	api.NewServer(svc, svc, deduper).Register(ctx, mux)
	return mux
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

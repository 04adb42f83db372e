package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhipl/backoffice/internal/app"
	"github.com/jhipl/backoffice/internal/backend"
	"github.com/jhipl/backoffice/internal/dategate"
	"github.com/jhipl/backoffice/internal/forms"
	"github.com/jhipl/backoffice/internal/lookups"
	"github.com/jhipl/backoffice/internal/observability"
	"github.com/jhipl/backoffice/internal/platform/cache"
	"github.com/jhipl/backoffice/internal/shared"
	"github.com/jhipl/backoffice/internal/taxcalc"
	"github.com/jhipl/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// Without Redis the service still runs, with per-process caching only.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, lookup cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)
	if err := backendClient.Ping(ctx); err != nil {
		logger.Warn("backend ping", slog.Any("error", err))
	}

	lookupCache := lookups.NewCache(redisClient, cfg.LookupCacheTTL)
	lookupService := lookups.NewService(backendClient, lookupCache, nil, cfg.POBookMaxAge, logger)
	if err := lookupService.Watch(ctx); err != nil {
		logger.Warn("watch lookup invalidations", slog.Any("error", err))
	}

	gate := dategate.New(cfg.GateBypassIdentity)
	metrics := observability.NewMetrics()
	formService := forms.NewService(lookupService, backendClient, gate, nil, logger).
		WithKeyGuard(shared.NewIdempotencyStore(redisClient, cfg.IdempotencyRetention))

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		TaxHandler:     taxcalc.NewHandler(),
		GateHandler:    dategate.NewHandler(gate, nil),
		LookupsHandler: lookups.NewHandler(logger, lookupService),
		FormsHandler:   forms.NewHandler(logger, formService, metrics),
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Ready:          readiness(redisClient, backendClient),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func readiness(redisClient *redis.Client, backendClient *backend.Client) func(*http.Request) error {
	return func(r *http.Request) error {
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				return err
			}
		}
		return backendClient.Ping(r.Context())
	}
}

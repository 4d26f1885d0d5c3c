package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"painel/internal/backend"
	"painel/internal/cache"
	"painel/internal/cli"
	"painel/internal/drilldown"
	apphttp "painel/internal/http"
	applog "painel/internal/log"
	"painel/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	engine, err := cli.NewEngine(cfg, logger)
	if err != nil {
		logger.Error("Failed to configure dashboard engine", "error", err)
		os.Exit(1)
	}

	result, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Backend initialized", "backend", cfg.DataBackend)

	snapshots := cache.NewLRUCache[*services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	dashboard := services.NewDashboardService(result.Backend, result.Backend, engine, snapshots,
		logger.WithComponent(applog.ComponentDashboard).Slog())

	sessions := drilldown.NewSessions(
		drilldown.Env{Calendar: engine.Calendar, Labeler: engine.Labeler},
		cfg.SessionMaxSize, cfg.SessionTTL,
		logger.WithComponent(applog.ComponentDrilldown).Slog())

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register("snapshots", snapshots)
	caches.Register("sessions", sessions.Store())
	caches.StartCleanup(time.Minute)

	var ready apphttp.ReadyFunc
	if p, ok := result.Backend.(backend.Pinger); ok {
		ready = p.Ping
	}

	srv := apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.Deps{
		Dashboard:       dashboard,
		Transactions:    services.NewTransactionService(result.Backend, engine.Calendar, dashboard, logger.WithComponent(applog.ComponentTransaction).Slog()),
		Goals:           services.NewGoalService(result.Backend, dashboard, logger.WithComponent(applog.ComponentGoals).Slog()),
		Sessions:        sessions,
		Calendar:        engine.Calendar,
		Ready:           ready,
		Logger:          logger,
		WritesPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:  cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting painel server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

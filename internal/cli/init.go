// Package cli holds the start-up steps shared by cmd/painel and
// cmd/painel-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"painel/internal/backend"
	"painel/internal/config"
	"painel/internal/core"
	"painel/internal/goals"
	applog "painel/internal/log"
	"painel/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is not an
// error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the component logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.FromSettings(component, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewEngine assembles the calendar, labeler and goal thresholds from cfg.
func NewEngine(cfg *config.Config, logger *applog.Logger) (services.Engine, error) {
	cal, err := core.NewCalendar(cfg.ReferenceTimezone)
	if err != nil {
		return services.Engine{}, err
	}
	mode, err := goals.ParseThresholdMode(cfg.GoalThresholdMode)
	if err != nil {
		return services.Engine{}, err
	}
	thresholds := goals.DefaultThresholds()
	thresholds.Mode = mode

	labeler := core.NewMonthLabeler(cfg.LabelLocale)
	logger.Info("Dashboard engine configured",
		"timezone", cal.Location.String(),
		"locale", labeler.Locale(),
		"month_span_cap", cfg.MonthSpanCap,
		"threshold_mode", mode)
	return services.NewEngine(cal, labeler, cfg.MonthSpanCap, thresholds, logger.Slog()), nil
}

// OpenBackend creates the configured data backend.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	return result, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once
// the signal arrives cleanup runs with a context bounded by timeout; the
// returned channel closes when it has finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until ctx is cancelled and cleanup has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

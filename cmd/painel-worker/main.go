package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"painel/internal/amqp"
	"painel/internal/cli"
	applog "painel/internal/log"
	"painel/internal/storage"
	"painel/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to run the goal alert worker")
		os.Exit(1)
	}

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

	// Backends that cannot store alerts share a local SQLite database for
	// de-duplication.
	alerts := worker.AlertStore(result.Alerts)
	var alertRepo *storage.SQLiteRepository
	if result.Alerts == nil {
		alertRepo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger.WithComponent(applog.ComponentStorage).Slog())
		if err != nil {
			logger.Error("Failed to open alert store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		alerts = alertRepo
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	alertWorker := worker.NewGoalAlertWorker(result.Backend, result.Backend, alerts, engine,
		logger.WithComponent(applog.ComponentWorker).Slog())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if alertRepo != nil {
			if err := alertRepo.Close(); err != nil {
				logger.Error("Alert store close error", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting painel-worker",
		"backend", cfg.DataBackend,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	if err := consumer.Consume(ctx, alertWorker.HandleTransactionChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

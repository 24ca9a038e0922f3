package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbabah/internal/amqp"
	"budgetbabah/internal/config"
	applog "budgetbabah/internal/log"
	"budgetbabah/internal/storage"
	"budgetbabah/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	loggerCfg := applog.DefaultConfig()
	loggerCfg.Component = applog.ComponentWorker
	logger := applog.New(loggerCfg)
	applog.SetDefault(logger)

	logger.Info("Starting budgetbabah-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}

	// The worker reads the same SQLite database the server writes.
	store, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupWorker := worker.NewBackupWorker(store, cfg.BackupDir, cfg.BackupKeep)

	logger.Info("Performing startup backup check...")
	if err := backupWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup backup check failed", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		handler := func(msg *amqp.BudgetChangedMessage) error {
			return backupWorker.HandleChangeMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeBudgetChanges(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give the consumer a moment to finish the in-flight message
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}

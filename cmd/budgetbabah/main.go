package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetbabah/internal/amqp"
	"budgetbabah/internal/app"
	"budgetbabah/internal/backend"
	"budgetbabah/internal/config"
	apphttp "budgetbabah/internal/http"
	applog "budgetbabah/internal/log"
	"budgetbabah/internal/storage"
	enginesync "budgetbabah/internal/sync"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	factory, err := backend.NewFactory(ctx, cfg.RemoteBackend)
	if err != nil {
		logger.Error("Failed to initialize remote backend", "error", err, "backend", cfg.RemoteBackend)
		os.Exit(1)
	}
	logger.Info("Initialized remote backend", "backend", cfg.RemoteBackend)

	engine := enginesync.NewEngine(factory, store, enginesync.Config{
		Debounce:      cfg.SyncDebounce,
		SavedDisplay:  cfg.SavedDisplay,
		SyncedDisplay: cfg.SyncedDisplay,
		ErrorDisplay:  cfg.ErrorDisplay,
	})
	defer engine.Stop()

	// Change feed is optional: without a broker the app runs standalone.
	var feed app.ChangeFeed
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		feed = amqpClient
		logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Change feed disabled - no AMQP_URL provided")
	}

	application := app.New(ctx, store, engine, feed)
	application.StartupSync(ctx)

	srv := apphttp.NewServer(":"+cfg.Port, application, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetbabah server", "port", cfg.Port, "backend", cfg.RemoteBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

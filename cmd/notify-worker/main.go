package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipher/administrato-notify/internal/config"
	"github.com/recipher/administrato-notify/internal/directory"
	"github.com/recipher/administrato-notify/internal/logger"
	"github.com/recipher/administrato-notify/internal/notify"
	"github.com/recipher/administrato-notify/internal/provider"
	"github.com/recipher/administrato-notify/internal/queue"
	"github.com/recipher/administrato-notify/internal/storage"
	"github.com/recipher/administrato-notify/internal/worker"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(logger.LoggingConfig{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})

	ctx := context.Background()

	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store := directory.NewStore(db.Pool)

	prov, err := provider.New(cfg.Provider, provider.NewHTTPClient(cfg.Provider.Timeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create notification provider")
	}
	if err := prov.HealthCheck(ctx); err != nil {
		// The provider may recover; processing retries handle the interim.
		log.Warn().Err(err).Str("provider", cfg.Provider.Type).Msg("provider health check failed")
	}

	profiles := notify.NewProfileSync(prov, log, cfg.Notify.SyncConcurrency)
	dispatcher := notify.NewDispatcher(prov, log)
	consumer := notify.NewConsumer(profiles, dispatcher, store, store, log, cfg.Notify.EventConcurrency)
	handler := worker.NewHandler(consumer, log)

	_, dequeuer, _, err := queue.NewQueue(cfg.Queue, handler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}

	if err := dequeuer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start dequeuer")
	}

	log.Info().
		Str("queue_type", cfg.Queue.Type).
		Str("stream", cfg.Queue.Stream).
		Str("group", cfg.Queue.Group).
		Int("workers", cfg.Queue.WorkerCount).
		Msg("notification worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down notification worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ShutdownTimeout)
	defer cancel()

	if err := dequeuer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dequeuer shutdown error")
	}

	log.Info().Msg("notification worker stopped")
}

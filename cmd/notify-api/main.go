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

	"github.com/recipher/administrato-notify/internal/api"
	"github.com/recipher/administrato-notify/internal/auth"
	"github.com/recipher/administrato-notify/internal/config"
	"github.com/recipher/administrato-notify/internal/directory"
	"github.com/recipher/administrato-notify/internal/logger"
	"github.com/recipher/administrato-notify/internal/queue"
	"github.com/recipher/administrato-notify/internal/storage"
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

	// The API only publishes and reprocesses; the dequeuer is never started,
	// so no message handler is needed.
	enqueuer, _, dlq, err := queue.NewQueue(cfg.Queue, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}

	if cfg.Auth.Secret == "" {
		log.Warn().Msg("auth secret is empty, set NOTIFY_AUTH_SECRET in production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey:  cfg.Auth.Secret,
		TokenExpiry: cfg.Auth.TokenTTL,
		Issuer:      "administrato-notify",
	})

	router := api.NewRouter(api.RouterDeps{
		Directory: store,
		DB:        db,
		Enqueuer:  enqueuer,
		DLQ:       dlq,
		JWT:       jwtService,
		Log:       log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown error")
	}

	log.Info().Msg("api server stopped")
}

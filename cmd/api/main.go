package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vidgate/server/internal/access"
	"github.com/vidgate/server/internal/auth"
	"github.com/vidgate/server/internal/config"
	"github.com/vidgate/server/internal/db"
	httphandler "github.com/vidgate/server/internal/http"
	"github.com/vidgate/server/internal/http/handlers"
	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/metrics"
	"github.com/vidgate/server/internal/middleware"
	"github.com/vidgate/server/internal/model"
	"github.com/vidgate/server/internal/repo"
	"github.com/vidgate/server/internal/stream"
)

func main() {
	_ = godotenv.Load(".env")

	logger := logging.New("vidgate")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	// Repositories
	tokenRepo := repo.NewTokenRepo(database)
	deviceRepo := repo.NewDeviceRepo(database)
	viewLogRepo := repo.NewViewLogRepo(database)
	videoRepo := repo.NewVideoRepo(database)

	// Core services
	accessService := access.NewService(tokenRepo, deviceRepo, viewLogRepo, videoRepo, logger)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	collector := metrics.NewCollector(nil)

	dispatcher := stream.NewDispatcher(logger, map[string]stream.Resolver{
		model.ProviderDrive: stream.NewDriveResolver("", cfg.DriveAccessToken, nil),
		model.ProviderVimeo: stream.NewVimeoResolver(cfg.VimeoPlayerBase),
	})

	// Cooldown store: shared via Redis when configured, else per-instance
	cooldown := newCooldownStore(ctx, cfg, logger)

	// Handlers
	adminHandler := handlers.NewAdminHandler(jwtService, cfg.AdminAPIKey, logger)
	tokenHandler := handlers.NewTokenHandler(tokenRepo, accessService, cfg.BaseURL, logger)
	videoHandler := handlers.NewVideoHandler(videoRepo, logger)
	streamHandler := handlers.NewStreamHandler(accessService, dispatcher, collector, logger)
	healthHandler := handlers.NewHealthHandler(database)

	router := httphandler.NewRouter(httphandler.RouterDeps{
		Admin:            adminHandler,
		Tokens:           tokenHandler,
		Videos:           videoHandler,
		Stream:           streamHandler,
		Health:           healthHandler,
		JWT:              jwtService,
		Metrics:          collector,
		Cooldown:         cooldown,
		PlaybackCooldown: cfg.PlaybackCooldown,
		RateLimitWindow:  cfg.RateLimitWindow,
		RateLimitMax:     cfg.RateLimitMax,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0, // streaming responses may be long-lived
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server exited")
}

// runMigrations applies the ordered schema deltas idempotently at startup.
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the module root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func newCooldownStore(ctx context.Context, cfg *config.Config, logger logging.Logger) middleware.CooldownStore {
	if cfg.RedisAddr == "" {
		logger.Info("playback cooldown using in-memory store (per instance)")
		return middleware.NewMemoryCooldown()
	}

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, falling back to in-memory cooldown")
		_ = client.Close()
		return middleware.NewMemoryCooldown()
	}

	logger.WithField("addr", cfg.RedisAddr).Info("playback cooldown using redis store")
	return middleware.NewRedisCooldown(client)
}

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

	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/api"
	"github.com/explorer-world/explorer-api/internal/api/handler"
	"github.com/explorer-world/explorer-api/internal/core/ports"
	"github.com/explorer-world/explorer-api/internal/core/service"
	mongodb "github.com/explorer-world/explorer-api/internal/infrastructure/db/mongo"
	redisdb "github.com/explorer-world/explorer-api/internal/infrastructure/db/redis"
	"github.com/explorer-world/explorer-api/internal/infrastructure/http/handlers"
	"github.com/explorer-world/explorer-api/internal/infrastructure/queue"
	"github.com/explorer-world/explorer-api/internal/infrastructure/storage/minio"
	"github.com/explorer-world/explorer-api/internal/pkg/config"
	"github.com/explorer-world/explorer-api/pkg/logger"
)

// @title        Explorer API
// @version      1.0
// @description  Locations on a map, owned by the accounts that created them.
// @BasePath     /
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "explorer-api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongodb.Disconnect(mongoClient, 5*time.Second) }()

	users := mongodb.NewUserRepository(db)
	locations := mongodb.NewLocationRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, locations); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	readiness := map[string]handlers.Check{"mongo": handlers.MongoCheck(db)}
	opts := service.LocationOptions{
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		MaxUploadBytes: cfg.Media.MaxBytes,
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Idempotency = redisdb.NewIdempotencyStore(rdb)
		readiness["redis"] = handlers.RedisCheck(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, idempotent location creation disabled")
	}

	if cfg.Media.Endpoint != "" {
		store, err := minio.Connect(ctx, minio.Config{
			Endpoint:  cfg.Media.Endpoint,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			Bucket:    cfg.Media.Bucket,
			UseSSL:    cfg.Media.UseSSL,
			PublicURL: cfg.Media.PublicURL,
		})
		if err != nil {
			return err
		}
		dispatcher := queue.NewDispatcher(cfg.Media.CleanupWorkers, service.NewMediaJanitor(store, log), log)
		dispatcher.Start(ctx)
		opts.Media = store
		opts.Cleaner = dispatcher
		readiness["media"] = handlers.PingCheck(store)
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, gallery uploads disabled")
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(users, tokens, cfg.Auth.BcryptCost, log)
	userService := service.NewUserService(users, cfg.Auth.BcryptCost, log)
	locationService := service.NewLocationService(locations, users, opts, log)

	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	e := api.NewRouter(
		api.Services{
			Auth:      authService,
			Users:     userService,
			Locations: locationService,
		},
		api.Options{
			Logger:              log,
			Cookie:              handler.CookieOptions{Secure: cfg.Auth.CookieSecure, TTL: tokens.TTL()},
			CORSOrigins:         cfg.CORSOrigins(),
			LocationCreateRoles: cfg.LocationCreateRoles(),
			Readiness:           readiness,
			Metrics:             true,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("received interruption signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

var (
	_ ports.AuthService     = (*service.AuthService)(nil)
	_ ports.UserService     = (*service.UserService)(nil)
	_ ports.LocationService = (*service.LocationService)(nil)
)

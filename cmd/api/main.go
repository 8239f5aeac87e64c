package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notas4int/url-cutter/internal/config"
	"github.com/notas4int/url-cutter/internal/handler"
	"github.com/notas4int/url-cutter/internal/logger"
	"github.com/notas4int/url-cutter/internal/middleware"
	"github.com/notas4int/url-cutter/internal/repository/postgres"
	redisRepo "github.com/notas4int/url-cutter/internal/repository/redis"
	"github.com/notas4int/url-cutter/internal/repository/sqlite"
	"github.com/notas4int/url-cutter/internal/service"
	"github.com/redis/go-redis/v9"
)

const apiPrefix = "/api/v1/super-url-cutter"

type linkStore interface {
	service.LinkRepository
	handler.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	loggerConfig := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	log := logger.Get()
	log.Info("Starting URL cutter service",
		"port", cfg.Server.Port,
		"domain", cfg.Service.Domain,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.Log.Level,
	)

	store, closeStore, err := setupStore(cfg)
	if err != nil {
		log.Error("Failed to setup storage", "error", err)
		os.Exit(1)
	}

	redisClient, err := setupRedis(cfg)
	if err != nil {
		log.Error("Failed to setup redis", "error", err)
		closeStore()
		os.Exit(1)
	}

	// a typed nil would defeat the service's nil check
	var linkCache service.CacheRepository
	if redisClient != nil {
		linkCache = redisRepo.NewLinkCache(redisClient)
	}

	shortenerService := service.NewShortenerService(store, linkCache, cfg.Service.Domain, cfg.Redis.CacheTTL)

	shortenerHandler := handler.NewShortenerHandler(shortenerService)
	healthHandler := handler.NewHealthHandler(store, redisClient)

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	router, err := setupRouter(shortenerHandler, healthHandler, limiter, cfg.Server.TrustedProxies)
	if err != nil {
		log.Error("Failed to setup router", "error", err)
		closeStore()
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	gracefulShutdown(srv, cfg.Server.ShutdownTimeout, closeStore, redisClient, log)
}

func setupStore(cfg *config.Config) (linkStore, func(), error) {
	ctx := context.Background()

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if cfg.Storage.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close()
				return nil, nil, fmt.Errorf("failed to migrate sqlite: %w", err)
			}
		}
		return repo, func() { _ = repo.Close() }, nil

	default:
		dbPool, err := setupDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(ctx, dbPool); err != nil {
				dbPool.Close()
				return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
			}
		}
		return postgres.NewLinkRepository(dbPool), dbPool.Close, nil
	}
}

func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dbConfig := cfg.Database
	poolConfig, err := pgxpool.ParseConfig(dbConfig.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(dbConfig.MaxConns)
	poolConfig.MinConns = int32(dbConfig.MinConns)
	poolConfig.MaxConnLifetime = dbConfig.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = dbConfig.MaxConnIdleTime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return dbPool, nil
}

// setupRedis returns a nil client when the cache is disabled.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return redisClient, nil
}

func setupRouter(
	shortenerHandler *handler.ShortenerHandler,
	healthHandler *handler.HealthHandler,
	limiter *middleware.RateLimiter,
	trustedProxies []string,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// with no trusted proxies X-Forwarded-For is ignored and ClientIP is the peer
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// health check
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)

	shorten := []gin.HandlerFunc{shortenerHandler.Shorten}
	if limiter != nil {
		shorten = append([]gin.HandlerFunc{limiter.Middleware()}, shorten...)
	}

	api := router.Group(apiPrefix)
	{
		api.POST("/shorten", shorten...)
		api.GET("/:alias", shortenerHandler.Redirect)
	}

	router.GET("/:alias", shortenerHandler.Redirect)

	return router, nil
}

func gracefulShutdown(srv *http.Server, timeout time.Duration, closeStore func(), redisClient *redis.Client, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	closeStore()
	log.Info("Storage closed")

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis", "error", err)
		}
	}

	log.Info("Graceful shutdown completed")
}

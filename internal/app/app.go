package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/alex-user-go/rateengine/internal/availability"
	"github.com/alex-user-go/rateengine/internal/cache"
	"github.com/alex-user-go/rateengine/internal/config"
	"github.com/alex-user-go/rateengine/internal/handler"
	"github.com/alex-user-go/rateengine/internal/inventory"
	"github.com/alex-user-go/rateengine/internal/middleware"
	"github.com/alex-user-go/rateengine/internal/obs"
	"github.com/alex-user-go/rateengine/internal/ratelimit"
)

// Run initializes and runs the application.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := obs.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	metrics := obs.NewMetrics(logger)

	store, err := newStore(cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("cache close error", "error", err)
		}
	}()

	client := inventory.NewClient(inventory.ClientConfig{
		BaseURL: cfg.Inventory.BaseURL,
		Credentials: inventory.Credentials{
			AgentID:  cfg.Inventory.AgentID,
			Password: cfg.Inventory.Password,
		},
		Timeout:           cfg.Inventory.Timeout,
		RequestsPerSecond: cfg.Inventory.RequestsPerSecond,
		Burst:             cfg.Inventory.Burst,
		CredentialTTL:     cfg.Cache.CredentialTTL,
	}, cache.WithHitCounter(store, metrics.IncCacheHits))

	engine := availability.NewEngine(client, metrics, logger)

	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	var credentials handler.CredentialChecker
	if cfg.Inventory.AgentID != "" {
		credentials = client
	} else {
		logger.Warn("no agent credentials configured, skipping credential check")
	}

	h := handler.New(engine, credentials, limiter, metrics, logger, handler.Options{
		CustomRates:      cfg.CustomRates,
		BatchMaxInFlight: cfg.Batch.MaxInFlight,
		BatchMaxRequests: cfg.Batch.MaxRequests,
	})

	srv := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      newRouter(cfg.App, h, metrics, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.App.Env, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func newRouter(cfg config.AppConfig, h *handler.Handler, metrics *obs.Metrics, logger *slog.Logger) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}
	r.GET("/healthz", obs.HealthHandler())
	r.GET("/metrics", metrics.MetricsHandler())
	h.Register(r)
	return r
}

func newStore(cfg config.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	if cfg.Backend != config.CacheRedis {
		return cache.NewMemory(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("redis cache connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return cache.NewRedis(client, cfg.Prefix), nil
}

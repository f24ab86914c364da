package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alex-user-go/rateengine/internal/middleware"
	"github.com/alex-user-go/rateengine/internal/obs"
)

func main() {
	port := getEnv("PORT", "9001")
	logger := obs.NewLogger(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))

	failureRate, err := strconv.ParseFloat(getEnv("FAILURE_RATE", "0.05"), 64)
	if err != nil || failureRate < 0 || failureRate > 1 {
		logger.Error("invalid FAILURE_RATE", "value", os.Getenv("FAILURE_RATE"))
		os.Exit(1)
	}

	upstream := newUpstream(upstreamConfig{
		Now:         time.Now(),
		AgentID:     getEnv("MOCK_AGENT_ID", "agent"),
		Password:    getEnv("MOCK_AGENT_PASSWORD", "secret"),
		FailureRate: failureRate,
		MinLatency:  30 * time.Millisecond,
		MaxLatency:  150 * time.Millisecond,
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(logger))
	r.GET("/healthz", obs.HealthHandler())
	upstream.Register(r)

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("mock inventory listening", "addr", addr, "failure_rate", failureRate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

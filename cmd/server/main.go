package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/api"
	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/internal/websocket"
	"github.com/stitts-dev/lineup-optimizer/pkg/cache"
	"github.com/stitts-dev/lineup-optimizer/pkg/config"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	log := logger.WithService("lineup-optimizer")
	log.WithFields(logrus.Fields{
		"version":     "1.0.0",
		"environment": cfg.Env,
		"port":        cfg.Port,
		"strategy":    cfg.DefaultStrategy,
		"policy":      cfg.DiversityPolicy,
	}).Info("Starting lineup optimizer")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional; results fall back to an in-process cache
	var store cache.Store
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to configure Redis: %v", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		store = cache.NewOptimizationCacheService(redisClient, log)
	} else {
		log.Warn("REDIS_URL not set, using in-memory result cache")
		store = cache.NewMemoryCache()
	}

	// The hub outlives the signal context so clients hear about the shutdown
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := websocket.NewHub(log)
	go wsHub.Run(hubCtx)

	fetcher := ingest.NewFetcher(cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, log).
		WithRateLimit(cfg.SlateFetchRate, cfg.SlateFetchBurst)
	slates := ingest.NewSource(fetcher, cfg.SlateURL, cfg.SlateFile)
	if err := slates.Ready(); err != nil {
		log.WithError(err).Warn("Slate source not ready, optimization requests will fail until it is configured")
	}

	router := api.NewRouter(api.Dependencies{
		Config: cfg,
		Slates: slates,
		Cache:  store,
		Hub:    wsHub,
		Logger: logrus.NewEntry(structuredLogger),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Lineup optimizer started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down lineup optimizer...")
	wsHub.BroadcastToAll(websocket.MessageServerShutdown, gin.H{"reason": "server shutting down"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Lineup optimizer forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Info("Lineup optimizer exited")
}

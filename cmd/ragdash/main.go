package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firstfamily/ragdash/internal/api"
	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/llm"
	"github.com/firstfamily/ragdash/internal/ratelimit"
	"github.com/firstfamily/ragdash/internal/service"
	"github.com/firstfamily/ragdash/internal/upstream"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Local development keeps secrets in .env
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Rate-limit counter store: shared when Redis is configured, otherwise
	// in-process.
	var store ratelimit.Store
	if cfg.RateLimit.RedisAddr != "" {
		store, err = ratelimit.NewRedisStore(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, "ragdash:ratelimit")
		if err != nil {
			logger.Fatal("Failed to initialize redis rate-limit store", zap.Error(err))
		}
	} else {
		store = ratelimit.NewMemoryStore()
	}
	limiter, err := ratelimit.New(store, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	if err != nil {
		logger.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	upstreamClient := upstream.NewClient(cfg.Upstream, logger)

	var generator llm.Generator
	if cfg.LLM.APIKey != "" {
		generator, err = llm.NewGenerator(context.Background(), cfg.LLM)
		if err != nil {
			logger.Warn("Failed to initialize generator, research endpoint disabled", zap.Error(err))
		}
	}

	scrapeService := service.NewScrapeService(cfg, limiter, generator, logger)

	router := api.SetupRouter(upstreamClient, scrapeService, logger)

	// WriteTimeout stays zero: the chat relay is an open-ended SSE stream
	// bounded only by the upstream.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("Starting ragdash server",
			zap.String("address", cfg.Address()),
			zap.String("upstream", cfg.Upstream.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

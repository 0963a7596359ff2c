package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/moneysignalai/breakpoint-engine/config"
	"github.com/moneysignalai/breakpoint-engine/internal/api"
	"github.com/moneysignalai/breakpoint-engine/internal/auth"
	"github.com/moneysignalai/breakpoint-engine/internal/cache"
	"github.com/moneysignalai/breakpoint-engine/internal/database"
	"github.com/moneysignalai/breakpoint-engine/internal/grading"
	"github.com/moneysignalai/breakpoint-engine/internal/logging"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
	"github.com/moneysignalai/breakpoint-engine/internal/notification"
	"github.com/moneysignalai/breakpoint-engine/internal/scanner"
	"github.com/moneysignalai/breakpoint-engine/internal/strategy"
)

func main() {
	// .env is optional; environment wins either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("configuration loaded")

	// Database
	var repo *database.Repository
	db, err := database.NewDB(cfg.DatabaseConfig, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, running without persistence")
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.RunMigrations(ctx); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("database migrations failed")
		}
		cancel()
		repo = database.NewRepository(db)
	}

	// Alert cooldown cache
	cooldown := cache.NewCooldownCache(
		cfg.RedisConfig,
		time.Duration(cfg.ScannerConfig.CooldownMinutes)*time.Minute,
		logger,
	)
	defer cooldown.Close()

	// Notifications
	notifier := notification.NewManager(cfg.NotificationConfig.Enabled, logger)
	if cfg.NotificationConfig.Enabled {
		telegram, err := notification.NewTelegramNotifier(cfg.NotificationConfig.Telegram)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier init failed")
		} else if telegram.IsEnabled() {
			notifier.AddNotifier(telegram)
			logger.Info().Msg("telegram notifications enabled")
		}
		discord := notification.NewDiscordNotifier(cfg.NotificationConfig.Discord)
		if discord.IsEnabled() {
			notifier.AddNotifier(discord)
			logger.Info().Msg("discord notifications enabled")
		}
	}

	// Market data
	loc, err := time.LoadLocation(cfg.StrategyConfig.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading timezone")
	}
	client := market.NewClient(market.ClientConfig{
		APIKey:         cfg.MarketDataConfig.APIKey,
		BaseURL:        cfg.MarketDataConfig.BaseURL,
		Timeout:        time.Duration(cfg.MarketDataConfig.TimeoutSeconds) * time.Second,
		MaxRetries:     uint64(cfg.MarketDataConfig.MaxRetries),
		RequestsPerSec: cfg.MarketDataConfig.RequestsPerSec,
		Timezone:       loc,
	}, logger)

	// Evaluation engine
	engine, err := strategy.NewEngine(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building engine")
	}

	// Websocket fan-out
	hub := api.NewWSHub(logger)
	go hub.Run()

	// Scanner
	sc, err := scanner.NewScanner(client, engine, repo, cooldown, notifier, hub, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building scanner")
	}
	sc.Start()
	defer sc.Stop()

	// Grading
	var grader *grading.Grader
	if repo != nil {
		grader = grading.NewGrader(client, repo, cfg.GradingConfig, logger)
		grader.Start()
		defer grader.Stop()
	}

	// Admin auth
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		authService = auth.NewService(cfg.AuthConfig)
		logger.Info().Msg("admin authentication enabled")
	}

	// HTTP API
	server := api.NewServer(cfg, repo, sc, authService, hub, logger)
	server.Start()

	logger.Info().Msg("breakpoint engine running")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
}

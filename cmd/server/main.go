package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/backgammon-go/internal/api"
	"github.com/mcoot/backgammon-go/internal/config"
	"github.com/mcoot/backgammon-go/internal/factory"
	"github.com/mcoot/backgammon-go/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to an optional YAML config file")
	flag.Parse()

	// A local .env is optional
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run owns every deferred cleanup so none is skipped by os.Exit
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		AuthConfig:  cfg.AuthConfig(),
		GameConfig:  cfg.GameConfig(),
		Logger:      logger,
		StorageType: cfg.Storage,
	}
	if cfg.Storage == factory.StorageTypeRedis {
		redisCfg := cfg.RedisConfig()
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	wsHandler := ws.NewHandler(app.AuthService, app.LobbyController, app.GameController, app.HubManager, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		GameController:  app.GameController,
		HubManager:      app.HubManager,
		WebSocket:       wsHandler,
	})

	server := api.NewServer(router, cfg.ServerConfig(), logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.StartCleanup(ctx, cfg.Cleanup.Interval)

	logger.Info("server starting",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
		slog.Duration("cleanup_interval", cfg.Cleanup.Interval))

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

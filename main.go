package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"flightfare/app"
	"flightfare/config"
	"flightfare/logging"
)

func main() {
	// 1. Load config; config.yaml is optional, env vars are enough
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		configPath = ""
	}
	cfg, err := config.Load(configPath, "")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 3. Load artifacts; refuse to start without them
	service, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}

	// 4. Serve until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := service.Run(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
	logger.Info("Exiting")
}

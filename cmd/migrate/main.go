package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"studybuddy/internal/bootstrap"
	"studybuddy/internal/config"
	"studybuddy/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := bootstrap.Migrate(ctx, cfg, lg); err != nil {
		lg.Fatal("migrate failed", zap.Error(err))
	}
	lg.Info("migrate finished")
}

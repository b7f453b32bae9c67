package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"studybuddy/internal/config"
	"studybuddy/internal/model"
	databaseClient "studybuddy/internal/platform/database"
	"studybuddy/internal/repository"
)

// Migrate creates the relational tables and the object-storage bucket.
// The server never runs DDL itself.
func Migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := databaseClient.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := db.WithContext(ctx).AutoMigrate(&model.TranscriptRecord{}, &model.FileContent{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	logger.Info("tables migrated", zap.String("driver", cfg.Database.Driver))

	tagged, err := repository.NewTranscriptRepository(db).BackfillStorageBackend(ctx)
	if err != nil {
		return err
	}
	if tagged > 0 {
		logger.Info("fallback transcripts tagged", zap.Int64("rows", tagged))
	}

	a := &App{Config: cfg, Logger: logger}
	if err := a.openObjectStore(); err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.Objects == nil {
		logger.Info("no object store configured, skipping bucket setup", zap.String("backend", cfg.Storage.Backend))
		return nil
	}
	if err := a.Objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s failed: %w", cfg.Storage.Bucket, err)
	}
	logger.Info("bucket ready", zap.String("bucket", cfg.Storage.Bucket), zap.String("backend", cfg.Storage.Backend))
	return nil
}

// Command migrate-passwords upgrades stored legacy password digests to the
// modern format. Accounts whose digest is neither format are rehashed with a
// placeholder password and must reset their password afterwards.
//
// Safe to run repeatedly: already-upgraded digests are left untouched.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskdash/task-dashboard-api/internal/api/metrics"
	"github.com/taskdash/task-dashboard-api/internal/core/password"
	"github.com/taskdash/task-dashboard-api/internal/core/service"
	"github.com/taskdash/task-dashboard-api/internal/infrastructure/config"
	mongodb "github.com/taskdash/task-dashboard-api/internal/infrastructure/db/mongo"
	"github.com/taskdash/task-dashboard-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	hasher := password.NewHasher(cfg.BcryptCost)
	migrator := service.NewPasswordMigrator(userRepo, hasher, log)

	summary, err := migrator.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	metrics.PasswordsMigratedTotal.Add(float64(summary.Migrated))

	log.Info().
		Int("examined", summary.Examined).
		Int("migrated", summary.Migrated).
		Int("skipped_modern", summary.SkippedModern).
		Strs("reset_users", summary.ResetUsers).
		Msg("migration complete")

	if len(summary.ResetUsers) > 0 {
		log.Warn().
			Strs("usernames", summary.ResetUsers).
			Msg("accounts rehashed with a placeholder password, users must reset their password")
	}

	remaining, err := migrator.Verify(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("verification failed")
	}
	if len(remaining) > 0 {
		log.Error().Strs("usernames", remaining).Msg("accounts still carry non-modern digests")
		return
	}
	log.Info().Msg("all stored digests verified modern")
}

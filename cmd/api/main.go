// Task Dashboard API server.
//
// @title           Task Dashboard API
// @version         1.0
// @description     Personal task management API with credential-based authentication and per-owner task isolation.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "github.com/taskdash/task-dashboard-api/docs"
	"github.com/taskdash/task-dashboard-api/internal/api"
	"github.com/taskdash/task-dashboard-api/internal/api/handler"
	"github.com/taskdash/task-dashboard-api/internal/core/password"
	"github.com/taskdash/task-dashboard-api/internal/core/service"
	"github.com/taskdash/task-dashboard-api/internal/infrastructure/config"
	mongodb "github.com/taskdash/task-dashboard-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskdash/task-dashboard-api/internal/infrastructure/db/redis"
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

	// --- MongoDB ---
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
	taskRepo := mongodb.NewTaskRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := taskRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("task index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Core services ---
	hasher := password.NewHasher(cfg.BcryptCost)
	if cfg.BcryptCost < bcrypt.DefaultCost {
		log.Warn().Int("cost", cfg.BcryptCost).Msg("bcrypt cost below recommended default")
	}
	authService := service.NewAuthService(userRepo, hasher, log)
	taskService := service.NewTaskService(taskRepo, log)
	limiter := redisdb.NewFixedWindowLimiter(rdb)

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		TaskService: taskService,
		Limiter:     limiter,
		RateLimits:  cfg.RateLimit,
		Readiness:   handler.NewHealthDependenciesHandler(db, rdb).Readiness,
		Log:         log,
	})

	// --- Serve with graceful shutdown ---
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

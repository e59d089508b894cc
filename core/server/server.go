package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hutbook/core/cache"
	"hutbook/core/config"
	"hutbook/core/database"
	"hutbook/core/logger"
	"hutbook/core/storage"
	"hutbook/modules/auth"
	"hutbook/modules/booking"
	"hutbook/modules/calendarsync"
	synctasks "hutbook/modules/calendarsync/tasks"
	"hutbook/modules/notification"
	"hutbook/modules/venue"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run wires the whole application: config, Postgres, Redis, the asynq
// worker/scheduler pair and every module's routes, then serves until a
// shutdown signal arrives.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	cacheClient, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return err
	}

	objectStore := storage.NewS3Storage(cfg.S3)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	mux := asynq.NewServeMux()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())

	// Module wiring. Each module constructs its own layers from the shared
	// infrastructure, following the layout of the rest of the codebase.
	venue.Init(e, db, objectStore)
	auth.Init(e, db, cacheClient)
	notification.Init(e, db, asynqClient, mux)
	calendarsync.Init(e, db, cacheClient, asynqClient, mux)
	booking.Init(e, db, cacheClient, asynqClient)

	worker := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 5})
	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("asynq worker stopped", "error", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpt, nil)
	cadence := fmt.Sprintf("@every %dm", cfg.Sync.IntervalMinutes)
	if _, err := scheduler.Register(cadence, asynq.NewTask(synctasks.TypeSyncAll, nil)); err != nil {
		return fmt.Errorf("failed to register sync scheduler: %w", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("asynq scheduler stopped", "error", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	scheduler.Shutdown()
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

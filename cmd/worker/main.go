package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dinein-backend/internal/config"
	"dinein-backend/internal/infrastructure/database"
	"dinein-backend/pkg/logger"
)

func main() {
	envLoaded := godotenv.Load() == nil

	logger.Init(os.Getenv("APP_ENV"))
	if !envLoaded {
		logger.Info("no .env file found, using system environment", nil)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading configuration", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		logger.Error("connecting to postgres", err)
		os.Exit(1)
	}
	defer db.Close()

	handlers := newHandlerRegistry(db)
	srv := startWorkerServer(cfg, handlers)
	scheduler := startScheduler(cfg)

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *workerServer, scheduler *workerScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker", nil)
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("worker stopped", nil)
}

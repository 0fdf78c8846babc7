package main

import (
	"dinein-backend/internal/config"
	"dinein-backend/internal/infrastructure/queue"
	"dinein-backend/pkg/logger"
)

type workerScheduler struct {
	*queue.Scheduler
}

func startScheduler(cfg *config.Config) *workerScheduler {
	scheduler := queue.NewScheduler(cfg.Redis.Host)

	if err := scheduler.RegisterMaintenanceJobs(); err != nil {
		logger.Error("registering scheduled jobs", err)
	}

	go func() {
		if err := scheduler.Start(); err != nil {
			logger.Error("scheduler", err)
		}
	}()

	return &workerScheduler{Scheduler: scheduler}
}

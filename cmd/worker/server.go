package main

import (
	"context"

	"github.com/hibiken/asynq"

	"dinein-backend/internal/config"
	"dinein-backend/internal/infrastructure/push"
	"dinein-backend/internal/infrastructure/queue"
	"dinein-backend/pkg/logger"
)

type workerServer struct {
	*asynq.Server
}

func startWorkerServer(cfg *config.Config, handlers *handlerRegistry) *workerServer {
	mux := asynq.NewServeMux()
	handlers.register(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Host, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				push.QueueNotifications: 10,
				queue.QueueMaintenance:  2,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				logger.Error("task failed: "+task.Type(), err)
			}),
		},
	)

	go func() {
		logger.Info("worker starting", map[string]interface{}{
			"queues": []string{push.QueueNotifications, queue.QueueMaintenance},
		})
		if err := srv.Run(mux); err != nil {
			logger.Error("worker server", err)
		}
	}()

	return &workerServer{Server: srv}
}

package main

import (
	"github.com/hibiken/asynq"

	promotionJob "dinein-backend/internal/domains/promotion/job"
	promotionRepo "dinein-backend/internal/domains/promotion/repository"
	"dinein-backend/internal/infrastructure/database"
	"dinein-backend/internal/infrastructure/push"
	pushJob "dinein-backend/internal/infrastructure/push/job"
)

// handlerRegistry holds every task handler the worker serves.
type handlerRegistry struct {
	notify          *pushJob.NotifyHandler
	promotionExpiry *promotionJob.DeactivateExpiredHandler
}

func newHandlerRegistry(db *database.PostgresDB) *handlerRegistry {
	promotions := promotionRepo.NewPostgresRepository(db.Pool)

	return &handlerRegistry{
		notify:          pushJob.NewNotifyHandler(pushJob.LogProvider{}),
		promotionExpiry: promotionJob.NewDeactivateExpiredHandler(promotions),
	}
}

func (h *handlerRegistry) register(mux *asynq.ServeMux) {
	mux.HandleFunc(push.TaskTypeNotify, h.notify.ProcessTask)
	mux.HandleFunc(promotionJob.TypeDeactivateExpired, h.promotionExpiry.ProcessTask)
}

package queue

import (
	"time"

	"github.com/hibiken/asynq"

	promotionJob "dinein-backend/internal/domains/promotion/job"
	"dinein-backend/pkg/logger"
)

// QueueMaintenance carries periodic housekeeping tasks.
const QueueMaintenance = "maintenance"

// Scheduler registers recurring tasks with asynq's cron runner.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddr string) *Scheduler {
	return &Scheduler{
		scheduler: asynq.NewScheduler(
			asynq.RedisClientOpt{Addr: redisAddr},
			&asynq.SchedulerOpts{
				Location: time.UTC,
				LogLevel: asynq.InfoLevel,
			},
		),
	}
}

func (s *Scheduler) RegisterMaintenanceJobs() error {
	return s.registerDeactivateExpiredPromotionsJob()
}

// Hourly, on the hour. Authorization enforces the window itself, so
// the sweep only affects listings.
func (s *Scheduler) registerDeactivateExpiredPromotionsJob() error {
	task, err := promotionJob.NewDeactivateExpiredTask()
	if err != nil {
		return err
	}

	_, err = s.scheduler.Register(
		"0 * * * *",
		task,
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		logger.Error("registering promotion expiry sweep", err)
		return err
	}

	logger.Info("registered promotion expiry sweep", map[string]interface{}{
		"schedule": "hourly",
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}

package push

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// AsynqDispatcher hands notifications to the background worker through
// the task queue.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(redisAddr string) *AsynqDispatcher {
	return &AsynqDispatcher{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (d *AsynqDispatcher) Notify(ctx context.Context, userIDs []uuid.UUID, title, body string, data map[string]string) error {
	task, err := NewNotifyTask(&NotifyPayload{
		UserIDs: userIDs,
		Title:   title,
		Body:    body,
		Data:    data,
	})
	if err != nil {
		return err
	}

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

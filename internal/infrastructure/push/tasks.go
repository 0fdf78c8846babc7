package push

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types handled by the notification worker
const (
	TaskTypeNotify = "push:notify"

	// QueueNotifications carries delivery fan-out tasks
	QueueNotifications = "notifications"
)

// NotifyPayload is the enqueued form of one notification fan-out
type NotifyPayload struct {
	UserIDs []uuid.UUID       `json:"user_ids"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}

// NewNotifyTask builds the asynq task for a notification fan-out
func NewNotifyTask(payload *NotifyPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notify payload: %w", err)
	}
	return asynq.NewTask(TaskTypeNotify, raw), nil
}
